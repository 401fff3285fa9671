package opensea

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// OpenSea（auction-house 架构）功能标识（8 字节小端）
const (
	opSell        int64 = 0x66e92a9ae52d1a08
	opCancelSell  int64 = 0x6d4c3f108a27e539
	opExecuteSale int64 = 0x7a9f02b8c416dd50
)

// 拍卖程序结算指令
const (
	aucOpSettle int64 = 0x1f38c570d2b4ea96
)

// 参数布局同 auction-house：discriminator(8) + bump(u8) ×3 后随价格 u64
const sellPriceStart = 11

// 账户位置表：
//
//	sell/cancel: #0 持有者钱包  #1 token account
//	executeSale: #0 买家钱包    #2 token account
//	settle:      #0 买家钱包
func RegisterParsers(m map[string]common.ParseFunc, accounts config.OpenSeaAccounts) {
	m[accounts.Program] = parseDirect(accounts)
	m[accounts.AuctionProgram] = parseAuction(accounts)
}

func parseDirect(accounts config.OpenSeaAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		if ix := tx.FindInstruction(accounts.Program, opSell, 8); ix != nil {
			price, err := ix.GetInt(sellPriceStart, 8)
			if err != nil {
				return nil, err
			}
			return assemble(tx, ix.Account(1), core.EventListing, price, ix.Account(0), "")
		}
		if ix := tx.FindInstruction(accounts.Program, opCancelSell, 8); ix != nil {
			return assemble(tx, ix.Account(1), core.EventDelisting, 0, ix.Account(0), "")
		}
		if ix := tx.FindInstruction(accounts.Program, opExecuteSale, 8); ix != nil {
			group := tx.FindInnerInstructions(ix)
			if group == nil {
				return nil, common.ErrInnerInstructionsMissing
			}
			buyer := ix.Account(0)
			// 买家自己的手续费转账不计入成交价
			price := common.SumTransfersExcludingSource(group, buyer)
			return assemble(tx, ix.Account(2), core.EventSale, price, "", buyer)
		}
		return nil, common.ErrInstructionMissing
	}
}

func parseAuction(accounts config.OpenSeaAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		ix := tx.FindInstruction(accounts.AuctionProgram, aucOpSettle, 8)
		if ix == nil {
			return nil, common.ErrInstructionMissing
		}
		event, err := common.ResolveAuctionSettle(tx, ix, ix.Account(0))
		if err != nil {
			return nil, err
		}
		event.MarketID = consts.MarketOpenSea
		return event, nil
	}
}

func assemble(
	tx *txmodel.Transaction,
	tokenAccount string,
	typ core.EventType,
	price uint64,
	owner, buyer string,
) (*core.SecondaryMarketEvent, error) {
	mint, _, ok := tx.FindTokenAddressAndOwner(tokenAccount)
	if !ok {
		return nil, common.ErrTokenKeyUnresolved
	}
	return &core.SecondaryMarketEvent{
		BlockchainID: consts.ChainIDSolana,
		MarketID:     consts.MarketOpenSea,
		Timestamp:    tx.BlockTime,
		EventType:    typ,
		TokenKey:     mint,
		Price:        price,
		Owner:        owner,
		Buyer:        buyer,
		TxHash:       tx.Signature,
	}, nil
}
