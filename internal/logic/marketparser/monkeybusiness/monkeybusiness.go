package monkeybusiness

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// Solana Monkey Business v1/v2 功能标识（1 字节）
const (
	v12OpList   int64 = 1
	v12OpDelist int64 = 2
	v12OpBuy    int64 = 3
)

// v3（anchor 架构）功能标识（8 字节小端）
const (
	v3OpList        int64 = 0x2ab4f1e96c83d057
	v3OpDelist      int64 = 0x3cd07a58e1b2f964
	v3OpBuy         int64 = 0x40e85c12d96ab7f8
	v3OpUpdatePrice int64 = 0x57f3c2097e14ba26
)

// 账户位置表（三个版本一致）：#0 发起方钱包  #1 token account
func RegisterParsers(m map[string]common.ParseFunc, accounts config.MonkeyBusinessAccounts) {
	m[accounts.V1Program] = parseVersion(accounts.V1Program, 1, v12OpList, v12OpDelist, v12OpBuy, -1)
	m[accounts.V2Program] = parseVersion(accounts.V2Program, 1, v12OpList, v12OpDelist, v12OpBuy, -1)
	m[accounts.V3Program] = parseVersion(accounts.V3Program, 8, v3OpList, v3OpDelist, v3OpBuy, v3OpUpdatePrice)
}

func parseVersion(program string, width int, opList, opDelist, opBuy, opUpdate int64) common.ParseFunc {
	priceStart := width
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		if ix := tx.FindInstruction(program, opList, width); ix != nil {
			return ownerEvent(tx, ix, core.EventListing, priceStart)
		}
		if opUpdate >= 0 {
			if ix := tx.FindInstruction(program, opUpdate, width); ix != nil {
				return ownerEvent(tx, ix, core.EventPriceUpdate, priceStart)
			}
		}
		if ix := tx.FindInstruction(program, opDelist, width); ix != nil {
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
				MarketID:     consts.MarketMonkeyBusiness,
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
		MarketID:     consts.MarketMonkeyBusiness,
		Timestamp:    tx.BlockTime,
		EventType:    typ,
		TokenKey:     mint,
		Price:        price,
		Owner:        ix.Account(0),
		TxHash:       tx.Signature,
	}, nil
}
