package magiceden

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// Magic Eden v1 功能标识（8 字节小端）
const (
	v1OpTrade     int64 = 0x4c6f2b543a84eb4d // 挂单 / 撤单 / 成交共用的托管指令
	v1OpBid       int64 = 0x1aa5d1d9d1e7cd12
	v1OpCancelBid int64 = 0x2e05ba851bd1e3ed
)

// v1 账户位置表：
//
//	trade:      #0 发起方钱包  #1 token account
//	bid/cancel: #0 买家钱包   #1 托管账户  #2 mint
func parseV1(accounts config.MagicEdenAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		if ix := tx.FindInstruction(accounts.V1Program, v1OpBid, 8); ix != nil {
			return v1BidEvent(tx, ix, core.EventBid)
		}
		if ix := tx.FindInstruction(accounts.V1Program, v1OpCancelBid, 8); ix != nil {
			return v1BidEvent(tx, ix, core.EventCancelBidding)
		}
		ix := tx.FindInstruction(accounts.V1Program, v1OpTrade, 8)
		if ix == nil {
			return nil, common.ErrInstructionMissing
		}
		event, err := common.ResolveEscrowTrade(tx, ix, common.EscrowTradeTable{
			Escrow:          accounts.V1Authority,
			PriceStart:      8,
			OwnerPos:        0,
			TokenAccountPos: 1,
		})
		if err != nil {
			return nil, err
		}
		event.MarketID = consts.MarketMagicEden
		return event, nil
	}
}

func v1BidEvent(tx *txmodel.Transaction, ix *txmodel.Instruction, typ core.EventType) (*core.SecondaryMarketEvent, error) {
	mint := ix.Account(2)
	if mint == "" {
		return nil, common.ErrTokenKeyUnresolved
	}
	var price uint64
	if typ == core.EventBid {
		p, err := ix.GetInt(8, 8)
		if err != nil {
			return nil, err
		}
		price = p
	}
	return &core.SecondaryMarketEvent{
		BlockchainID: consts.ChainIDSolana,
		MarketID:     consts.MarketMagicEden,
		Timestamp:    tx.BlockTime,
		EventType:    typ,
		TokenKey:     mint,
		Price:        price,
		Buyer:        ix.Account(0),
		TxHash:       tx.Signature,
	}, nil
}
