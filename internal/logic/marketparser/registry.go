package marketparser

import (
	"errors"
	"fmt"
	"runtime/debug"

	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/alphaart"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/marketparser/digitaleyes"
	"nft-indexer-sol/internal/logic/marketparser/exchangeart"
	"nft-indexer-sol/internal/logic/marketparser/magiceden"
	"nft-indexer-sol/internal/logic/marketparser/monkeybusiness"
	"nft-indexer-sol/internal/logic/marketparser/opensea"
	"nft-indexer-sol/internal/logic/marketparser/solanart"
	"nft-indexer-sol/internal/logic/marketparser/solsea"
	"nft-indexer-sol/internal/logic/txmodel"
	"nft-indexer-sol/internal/pkg/logger"
)

// ErrNoMatchingParser 表示交易的账户列表中没有任何已注册的市场程序
var ErrNoMatchingParser = errors.New("no matching marketplace parser")

// Registry 是市场程序账户 → 解析器的路由表。
// 进程启动时由配置账户表构造一次，之后只读。
type Registry struct {
	parsers map[string]common.ParseFunc
}

// NewRegistry 构造解析器注册表。各市场的程序 / 托管地址由 cfg 注入，
// 每个解析器只拿到自己需要的账户。
func NewRegistry(cfg config.MarketsConfig) *Registry {
	m := make(map[string]common.ParseFunc)
	magiceden.RegisterParsers(m, cfg.MagicEden)
	alphaart.RegisterParsers(m, cfg.AlphaArt)
	solanart.RegisterParsers(m, cfg.Solanart)
	digitaleyes.RegisterParsers(m, cfg.DigitalEyes)
	solsea.RegisterParsers(m, cfg.Solsea)
	monkeybusiness.RegisterParsers(m, cfg.MonkeyBusiness)
	opensea.RegisterParsers(m, cfg.OpenSea)
	exchangeart.RegisterParsers(m, cfg.ExchangeArt)
	return &Registry{parsers: m}
}

// Dispatch 按 AccountKeys 顺序查找第一个已注册的市场程序并调用其解析器。
// 交易预期只触达一个市场程序，命中多个时以先出现者为准。
// 解析器 panic 在此边界兜底，转化为普通解析失败。
func (r *Registry) Dispatch(tx *txmodel.Transaction) (event *core.SecondaryMarketEvent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("[marketparser::Dispatch] panic tx=%s: %+v\nstack: %s", tx.Signature, rec, debug.Stack())
			event = nil
			err = fmt.Errorf("parser panic: %v", rec)
		}
	}()

	for _, key := range tx.AccountKeys {
		if parse, ok := r.parsers[key]; ok {
			return parse(tx)
		}
	}
	return nil, ErrNoMatchingParser
}

// Programs 返回已注册的程序账户集合（日志与诊断用）
func (r *Registry) Programs() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	return out
}
