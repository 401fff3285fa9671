package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser"
	"nft-indexer-sol/internal/logic/metaplex"
	"nft-indexer-sol/internal/logic/txmodel"
	"nft-indexer-sol/internal/mq"
	"nft-indexer-sol/internal/pkg/logger"
	"nft-indexer-sol/internal/store"
	"nft-indexer-sol/pkg/utils"
)

// ChainClient 是摄取所需的链访问能力
type ChainClient interface {
	GetConfirmedTransaction(ctx context.Context, signature string) ([]byte, error)
	GetAccountData(ctx context.Context, address string) ([]byte, error)
}

// EventStore 是摄取产出的持久化入口
type EventStore interface {
	SaveEventsWithNft(ctx context.Context, pairs []store.EventWithNft) (success int, failed []store.EventWithNft)
}

// SigMarker 是跨实例的签名幂等标记；可为 nil（单实例部署时不需要）
type SigMarker interface {
	TryClaim(ctx context.Context, sig string) (bool, error)
	MarkProcessed(ctx context.Context, sig string) error
	MarkInvalid(ctx context.Context, sig string) error
	Release(ctx context.Context, sig string) error
}

// MessageSender 把消息批量投递到 Kafka；可为 nil（不投递下游）
type MessageSender interface {
	Send(ctx context.Context, jobs []*mq.KafkaJob) (ok []*mq.KafkaJob, failed []mq.KafkaSendResult)
}

// IngestService 驱动一批签名从拉取到入库的完整流水线：
// 拉取原始交易 → 解析市场事件 → 拼装 NFT 元数据 → 条件写入库 → 下游投递。
// 签名之间相互独立，单签名失败只隔离该签名。
type IngestService struct {
	cfg      config.IngestConfig
	kafkaCfg config.KafkaProducerConfig

	chain    ChainClient
	registry *marketparser.Registry
	store    EventStore
	sigs     SigMarker
	sender   MessageSender
	http     *http.Client

	// sleep 可注入，测试时替换为 no-op
	sleep func(ctx context.Context, d time.Duration)
}

func NewIngestService(
	cfg config.IngestConfig,
	kafkaCfg config.KafkaProducerConfig,
	chain ChainClient,
	registry *marketparser.Registry,
	st EventStore,
	sigs SigMarker,
	sender MessageSender,
) *IngestService {
	return &IngestService{
		cfg:      cfg,
		kafkaCfg: kafkaCfg,
		chain:    chain,
		registry: registry,
		store:    st,
		sigs:     sigs,
		sender:   sender,
		http:     &http.Client{Timeout: 10 * time.Second},
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// sigOutcome 是单签名的一轮处理结果；transient 非空表示可重试
type sigOutcome struct {
	sig       string
	pair      *store.EventWithNft
	invalid   error
	transient error
}

// ProcessSignatures 摄取一批签名。
// 拉取失败的子集按固定间隔整体重试 RetryCount 轮，仍失败的签名重投到
// failed_sigs topic；结构失败 / 无匹配解析器的签名标记无效后丢弃。
func (s *IngestService) ProcessSignatures(ctx context.Context, sigs []string) error {
	if len(sigs) == 0 {
		return nil
	}
	if s.cfg.BatchTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.BatchTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	claimed := s.claim(ctx, sigs)
	if len(claimed) == 0 {
		return nil
	}

	// 拉取 + 解析：未决子集整轮重试，固定间隔
	pairs := make([]store.EventWithNft, 0, len(claimed)) // 保持输入顺序
	var invalidSigs, exhausted []string
	pending := claimed
	for round := 0; ; round++ {
		outcomes := utils.ParallelMap(pending, s.cfg.FetchConcurrency, func(sig string) *sigOutcome {
			return s.ingestOne(ctx, sig)
		})

		var retry []string
		for _, out := range outcomes {
			switch {
			case out.pair != nil:
				pairs = append(pairs, *out.pair)
			case out.invalid != nil:
				logger.Infof("[service::ProcessSignatures] 签名无效 sig=%s: %v", out.sig, out.invalid)
				invalidSigs = append(invalidSigs, out.sig)
			default:
				retry = append(retry, out.sig)
			}
		}
		if len(retry) == 0 {
			break
		}
		if round >= s.cfg.RetryCount || ctx.Err() != nil {
			exhausted = retry
			break
		}
		logger.Warnf("[service::ProcessSignatures] %d 个签名待重试（第 %d 轮）", len(retry), round+1)
		s.sleep(ctx, time.Duration(s.cfg.RetryBackoffS)*time.Second)
		pending = retry
	}

	_, failedPairs := s.store.SaveEventsWithNft(ctx, pairs)

	failedSet := make(map[string]bool, len(failedPairs))
	for _, p := range failedPairs {
		failedSet[p.Event.TxHash] = true
	}

	var savedEvents []*core.SecondaryMarketEvent
	for _, p := range pairs {
		if !failedSet[p.Event.TxHash] {
			savedEvents = append(savedEvents, p.Event)
		}
	}

	s.mark(ctx, savedEvents, invalidSigs)
	failedSigs := append(exhausted, keys(failedSet)...)
	s.publish(ctx, savedEvents, failedSigs)
	return ctx.Err()
}

// claim 过滤掉已被其他实例认领的签名
func (s *IngestService) claim(ctx context.Context, sigs []string) []string {
	if s.sigs == nil {
		return sigs
	}
	out := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		ok, err := s.sigs.TryClaim(ctx, sig)
		if err != nil {
			// Redis 不可用时放行，条件写兜底幂等
			logger.Warnf("[service::claim] redis 认领失败 sig=%s: %v", sig, err)
			out = append(out, sig)
			continue
		}
		if ok {
			out = append(out, sig)
		}
	}
	return out
}

// ingestOne 处理单个签名：拉取、解析、拼装元数据
func (s *IngestService) ingestOne(ctx context.Context, sig string) *sigOutcome {
	raw, err := s.chain.GetConfirmedTransaction(ctx, sig)
	if err != nil {
		return &sigOutcome{sig: sig, transient: err}
	}

	tx, err := txmodel.FromRaw(raw)
	if err != nil {
		return &sigOutcome{sig: sig, invalid: err}
	}

	event, err := s.registry.Dispatch(tx)
	if err != nil {
		if errors.Is(err, marketparser.ErrNoMatchingParser) {
			return &sigOutcome{sig: sig, invalid: err}
		}
		// 指令缺失 / 账户无法解析等解码失败同样不可重试
		return &sigOutcome{sig: sig, invalid: err}
	}

	return &sigOutcome{
		sig:  sig,
		pair: &store.EventWithNft{Event: event, Nft: s.buildNftData(ctx, event)},
	}
}

// buildNftData 拼装 NFT 存储记录。链上元数据取不到时返回 nil（事件照常入库），
// 链下 JSON 取不到时降级为仅链上字段。
func (s *IngestService) buildNftData(ctx context.Context, event *core.SecondaryMarketEvent) *core.NftData {
	pda, err := metaplex.DeriveMetadataAccount(event.TokenKey)
	if err != nil {
		logger.Warnf("[service::buildNftData] PDA 派生失败 token=%s: %v", event.TokenKey, err)
		return nil
	}
	data, err := s.chain.GetAccountData(ctx, pda)
	if err != nil {
		logger.Warnf("[service::buildNftData] 元数据账户读取失败 token=%s: %v", event.TokenKey, err)
		return nil
	}
	meta, err := metaplex.DecodeMetadata(data)
	if err != nil {
		logger.Warnf("[service::buildNftData] 元数据解码失败 token=%s: %v", event.TokenKey, err)
		return nil
	}

	owner := event.Owner
	if event.Buyer != "" {
		owner = event.Buyer
	}
	n := &core.NftData{
		BlockchainID:        consts.ChainIDSolana,
		TokenKey:            event.TokenKey,
		CollectionKey:       meta.UpdateAuthority,
		CurrentOwner:        owner,
		Name:                meta.Name,
		Symbol:              meta.Symbol,
		PrimarySaleHappened: meta.PrimarySaleHappened,
		MetadataURI:         meta.URI,
		Creators:            meta.Creators(),
	}

	if meta.URI != "" {
		attempts := s.cfg.MetadataRetryCount
		if attempts <= 0 {
			attempts = 1
		}
		for i := 0; i < attempts; i++ {
			off, err := fetchOffchainMetadata(ctx, s.http, meta.URI)
			if err == nil {
				applyOffchainMetadata(n, off)
				break
			}
			logger.Infof("[service::buildNftData] 链下元数据拉取失败（第 %d 次）token=%s: %v", i+1, event.TokenKey, err)
		}
	}
	return n
}

// mark 回写签名幂等标记
func (s *IngestService) mark(ctx context.Context, saved []*core.SecondaryMarketEvent, invalidSigs []string) {
	if s.sigs == nil {
		return
	}
	for _, e := range saved {
		if err := s.sigs.MarkProcessed(ctx, e.TxHash); err != nil {
			logger.Warnf("[service::mark] 标记已处理失败 sig=%s: %v", e.TxHash, err)
		}
	}
	for _, sig := range invalidSigs {
		if err := s.sigs.MarkInvalid(ctx, sig); err != nil {
			logger.Warnf("[service::mark] 标记无效失败 sig=%s: %v", sig, err)
		}
	}
}

// publish 投递已入库事件到下游 topic，失败签名重投到 failed_sigs topic
func (s *IngestService) publish(ctx context.Context, saved []*core.SecondaryMarketEvent, failedSigs []string) {
	// 失败签名先释放认领，重投后可被重新处理
	if s.sigs != nil {
		for _, sig := range failedSigs {
			if err := s.sigs.Release(ctx, sig); err != nil {
				logger.Warnf("[service::publish] 释放认领失败 sig=%s: %v", sig, err)
			}
		}
	}
	if s.sender == nil {
		return
	}

	var jobs []*mq.KafkaJob
	if len(saved) > 0 {
		eventJobs, err := mq.BuildEventJobs(s.kafkaCfg, saved)
		if err != nil {
			logger.Errorf("[service::publish] 事件消息编码失败: %v", err)
		} else {
			jobs = append(jobs, eventJobs...)
		}
	}
	jobs = append(jobs, mq.BuildFailedSigJobs(s.kafkaCfg, failedSigs)...)
	if len(jobs) == 0 {
		return
	}

	if _, failed := s.sender.Send(ctx, jobs); len(failed) > 0 {
		for _, f := range failed {
			logger.Errorf("[service::publish] 消息投递失败 topic=%s: %v", f.Job.Topic, f.Err)
		}
	}
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
