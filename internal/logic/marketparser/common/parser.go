package common

import (
	"errors"

	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/txmodel"
)

// ParseFunc 定义单个 (市场, 程序版本) 解析器的统一入口。
// 解析器必须是纯函数且幂等：同一交易重复解析产出完全一致的事件。
type ParseFunc func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error)

var (
	// ErrInstructionMissing 表示该市场的程序账户未作为主指令出现——交易与本解析器无关
	ErrInstructionMissing = errors.New("marketplace instruction missing")
	// ErrInnerInstructionsMissing 表示主指令匹配但无对应 inner 指令组——输入畸形或未覆盖的子场景
	ErrInnerInstructionsMissing = errors.New("inner instructions missing")
	// ErrTokenKeyUnresolved 表示事件字段部分解出但无法确定 mint 地址
	ErrTokenKeyUnresolved = errors.New("token key unresolved")
)
