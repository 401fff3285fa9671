package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"nft-indexer-sol/internal/cache"
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/pkg/logger"
)

// eventItem 是事件在存储中的落地形态。
// wk 为时间桶分区键；sk = blockchain#timestamp#txhash 排序键（定宽补零）；
// tsk = timestamp#blockchain#txhash，用于不分链、纯时间锚定的二级索引扫描。
type eventItem struct {
	WindowKey    string `dynamodbav:"wk"`
	SortKey      string `dynamodbav:"sk"`
	TimeSortKey  string `dynamodbav:"tsk"`
	BlockchainID uint32 `dynamodbav:"blockchain_id"`
	MarketID     uint32 `dynamodbav:"market_id"`
	Timestamp    int64  `dynamodbav:"timestamp"`
	EventType    uint8  `dynamodbav:"event_type"`
	TokenKey     string `dynamodbav:"token_key"`
	Price        uint64 `dynamodbav:"price"`
	Owner        string `dynamodbav:"owner,omitempty"`
	Buyer        string `dynamodbav:"buyer,omitempty"`
	TxHash       string `dynamodbav:"transaction_hash"`
}

func newEventItem(e *core.SecondaryMarketEvent, windowMinutes int) *eventItem {
	return &eventItem{
		WindowKey:    e.WindowKey(windowMinutes),
		SortKey:      e.SortKey(),
		TimeSortKey:  e.TimeSortKey(),
		BlockchainID: e.BlockchainID,
		MarketID:     uint32(e.MarketID),
		Timestamp:    e.Timestamp,
		EventType:    uint8(e.EventType),
		TokenKey:     e.TokenKey,
		Price:        e.Price,
		Owner:        e.Owner,
		Buyer:        e.Buyer,
		TxHash:       e.TxHash,
	}
}

func (it *eventItem) toEvent() *core.SecondaryMarketEvent {
	return &core.SecondaryMarketEvent{
		BlockchainID: it.BlockchainID,
		MarketID:     consts.MarketID(it.MarketID),
		Timestamp:    it.Timestamp,
		EventType:    core.EventType(it.EventType),
		TokenKey:     it.TokenKey,
		Price:        it.Price,
		Owner:        it.Owner,
		Buyer:        it.Buyer,
		TxHash:       it.TxHash,
	}
}

// EventWithNft 是一次成功摄取产出的 (事件, NFT) 对
type EventWithNft struct {
	Event *core.SecondaryMarketEvent
	Nft   *core.NftData
}

// Store 是事件 / NFT 的时间分桶持久层。
// 去重缓存为注入组件；缓存未命中时由条件写兜底幂等。
type Store struct {
	events        ddbTable
	nfts          ddbTable
	windowMinutes int
	dedup         *cache.DedupCache
}

func New(db DynamoAPI, cfg config.DynamoConfig, dedup *cache.DedupCache) *Store {
	windowMinutes := cfg.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 5
	}
	return &Store{
		events:        ddbTable{db: db, tableName: cfg.EventsTable},
		nfts:          ddbTable{db: db, tableName: cfg.NftTable},
		windowMinutes: windowMinutes,
		dedup:         dedup,
	}
}

// WindowMinutes 返回事件分区的时间桶宽度
func (s *Store) WindowMinutes() int {
	return s.windowMinutes
}

// forget 在写入失败时清除去重标识，保证失败条目重投不被缓存拦下
func (s *Store) forget(dedupKey string) {
	if s.dedup != nil {
		s.dedup.Forget(dedupKey)
	}
}

// SaveEventsWithNft 批量写入 (事件, NFT) 对。
// 键字段缺失的条目按 schema 违例丢弃并记日志（只隔离该条，不中断批次）；
// 重复条目（缓存命中或条件写未通过）按 no-op 跳过；
// 瞬态写失败的条目进入 failed 列表由调用方重投。
func (s *Store) SaveEventsWithNft(ctx context.Context, pairs []EventWithNft) (success int, failed []EventWithNft) {
	for _, pair := range pairs {
		if err := pair.Event.Validate(); err != nil {
			logger.Errorf("[store::SaveEventsWithNft] schema 违例，条目丢弃: %v", err)
			continue
		}

		dedupKey := pair.Event.DedupKey()
		if s.dedup != nil && s.dedup.Seen(dedupKey) {
			continue
		}

		eventErr := s.events.putConditional(ctx, newEventItem(pair.Event, s.windowMinutes), "sk")
		if eventErr != nil && !errors.Is(eventErr, ErrConditionalWriteSkipped) {
			logger.Warnf("[store::SaveEventsWithNft] 事件写入失败 tx=%s: %v", pair.Event.TxHash, eventErr)
			s.forget(dedupKey)
			failed = append(failed, pair)
			continue
		}

		// 条件写跳过只说明事件已落地；NFT 写仍要执行——上一轮可能在
		// 事件落地后、NFT 落地前失败，重投靠这里补齐（NFT 写自身幂等）。
		if pair.Nft != nil {
			if err := s.saveNft(ctx, pair.Nft); err != nil {
				logger.Warnf("[store::SaveEventsWithNft] NFT 写入失败 token=%s: %v", pair.Nft.TokenKey, err)
				s.forget(dedupKey)
				failed = append(failed, pair)
				continue
			}
		}
		if errors.Is(eventErr, ErrConditionalWriteSkipped) {
			continue
		}
		success++
	}
	return success, failed
}

// QueryEventsInWindow 查询单个时间桶内排序键落在 [lower, upper] 的事件，
// 按时间倒序返回。lower / upper 为空表示不设界。
func (s *Store) QueryEventsInWindow(ctx context.Context, windowKey, lower, upper string) ([]*core.SecondaryMarketEvent, error) {
	raw, err := s.events.queryRange(ctx, "", "wk", windowKey, "sk", lower, upper, true)
	if err != nil {
		return nil, err
	}
	out := make([]*core.SecondaryMarketEvent, 0, len(raw))
	for _, m := range raw {
		var it eventItem
		if err := dynamodbattribute.UnmarshalMap(m, &it); err != nil {
			return nil, err
		}
		out = append(out, it.toEvent())
	}
	return out, nil
}

// eventsByTimeIndex 是事件表上以 tsk 为排序键的本地二级索引，
// 供桶内不分链、纯时间锚定的范围读取使用
const eventsByTimeIndex = "tsk-index"

// QueryEventsByTime 查询单个时间桶内时间戳落在 [fromTs, toTs] 的事件，
// 按时间正序返回（重放 / 回补场景按发生顺序消费）。
// tsk 以时间戳开头，同一秒内再按链与交易哈希排序，因此范围界可以只按
// 时间戳构造：上界以 '~' 收尾（大于键中出现的任何字符）。
func (s *Store) QueryEventsByTime(ctx context.Context, windowKey string, fromTs, toTs int64) ([]*core.SecondaryMarketEvent, error) {
	if fromTs > toTs {
		return nil, nil
	}
	lower := fmt.Sprintf("%010d#", fromTs)
	upper := fmt.Sprintf("%010d#~", toTs)

	raw, err := s.events.queryRange(ctx, eventsByTimeIndex, "wk", windowKey, "tsk", lower, upper, false)
	if err != nil {
		return nil, err
	}
	out := make([]*core.SecondaryMarketEvent, 0, len(raw))
	for _, m := range raw {
		var it eventItem
		if err := dynamodbattribute.UnmarshalMap(m, &it); err != nil {
			return nil, err
		}
		out = append(out, it.toEvent())
	}
	return out, nil
}

// QueryEventsPage 从 startTs 所在时间桶开始向过去逐桶查询，直到取满 pageSize
// 条或到达 stopTs。分区方案不支持跨桶的单次范围查询，因此逐桶独立下发。
func (s *Store) QueryEventsPage(ctx context.Context, startTs, stopTs int64, pageSize int) ([]*core.SecondaryMarketEvent, error) {
	if pageSize <= 0 || startTs <= stopTs {
		return nil, nil
	}
	width := int64(s.windowMinutes) * 60
	var out []*core.SecondaryMarketEvent

	for bucket := startTs - startTs%width; bucket+width > stopTs && len(out) < pageSize; bucket -= width {
		events, err := s.QueryEventsInWindow(ctx, core.WindowKeyAt(bucket, s.windowMinutes), "", "")
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if e.Timestamp > startTs || e.Timestamp <= stopTs {
				continue
			}
			out = append(out, e)
			if len(out) >= pageSize {
				break
			}
		}
	}
	return out, nil
}
