package digitaleyes

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// DigitalEyes v1 功能标识（1 字节）
const (
	v1OpList   int64 = 0
	v1OpCancel int64 = 1
	v1OpBuy    int64 = 2
)

// DigitalEyes v2 功能标识（8 字节小端）
const (
	v2OpList        int64 = 0x19d1b7c8e5a63f42
	v2OpCancel      int64 = 0x21c57e1e3b0d9a76
	v2OpBuy         int64 = 0x435f8c2a9b17de03
	v2OpUpdatePrice int64 = 0x5b2da68c1f40e7b1
)

// 账户位置表（两个版本一致）：#0 发起方钱包  #1 token account
func RegisterParsers(m map[string]common.ParseFunc, accounts config.DigitalEyesAccounts) {
	m[accounts.V1Program] = parseVersion(accounts.V1Program, 1, v1OpList, v1OpCancel, v1OpBuy, -1)
	m[accounts.V2Program] = parseVersion(accounts.V2Program, 8, v2OpList, v2OpCancel, v2OpBuy, v2OpUpdatePrice)
}

// parseVersion 覆盖 v1 / v2 共同的纯偏移表解析；v2 额外支持改价指令。
func parseVersion(program string, width int, opList, opCancel, opBuy, opUpdate int64) common.ParseFunc {
	priceStart := width // 价格 u64 紧随功能标识
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		if ix := tx.FindInstruction(program, opList, width); ix != nil {
			return ownerEvent(tx, ix, core.EventListing, priceStart)
		}
		if opUpdate >= 0 {
			if ix := tx.FindInstruction(program, opUpdate, width); ix != nil {
				return ownerEvent(tx, ix, core.EventPriceUpdate, priceStart)
			}
		}
		if ix := tx.FindInstruction(program, opCancel, width); ix != nil {
			return ownerEvent(tx, ix, core.EventDelisting, -1)
		}
		if ix := tx.FindInstruction(program, opBuy, width); ix != nil {
			group := tx.FindInnerInstructions(ix)
			if group == nil {
				return nil, common.ErrInnerInstructionsMissing
			}
			mint, _, ok := tx.FindTokenAddressAndOwner(ix.Account(1))
			if !ok {
				return nil, common.ErrTokenKeyUnresolved
			}
			return &core.SecondaryMarketEvent{
				BlockchainID: consts.ChainIDSolana,
				MarketID:     consts.MarketDigitalEyes,
				Timestamp:    tx.BlockTime,
				EventType:    core.EventSale,
				TokenKey:     mint,
				Price:        common.AccumulateSystemTransfers(group),
				Buyer:        ix.Account(0),
				TxHash:       tx.Signature,
			}, nil
		}
		return nil, common.ErrInstructionMissing
	}
}

// ownerEvent 构造以持有者为主体的事件（挂单 / 撤单 / 改价）；
// priceStart < 0 表示该事件无价格字段。
func ownerEvent(tx *txmodel.Transaction, ix *txmodel.Instruction, typ core.EventType, priceStart int) (*core.SecondaryMarketEvent, error) {
	var price uint64
	if priceStart >= 0 {
		p, err := ix.GetInt(priceStart, 8)
		if err != nil {
			return nil, err
		}
		price = p
	}
	mint, _, ok := tx.FindTokenAddressAndOwner(ix.Account(1))
	if !ok {
		return nil, common.ErrTokenKeyUnresolved
	}
	return &core.SecondaryMarketEvent{
		BlockchainID: consts.ChainIDSolana,
		MarketID:     consts.MarketDigitalEyes,
		Timestamp:    tx.BlockTime,
		EventType:    typ,
		TokenKey:     mint,
		Price:        price,
		Owner:        ix.Account(0),
		TxHash:       tx.Signature,
	}, nil
}
