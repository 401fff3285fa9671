package exchangeart

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// ExchangeArt v1 功能标识（1 字节）
const (
	v1OpTrade int64 = 3
)

// v2 / 拍卖程序功能标识（8 字节小端）
const (
	v2OpTrade   int64 = 0x30ad9e1f74c2856b
	aucOpSettle int64 = 0x48d06f25b17ce9a4
)

// 账户位置表：
//
//	trade（v1/v2）: #0 发起方钱包  #1 token account
//	settle:        #0 买家钱包
func RegisterParsers(m map[string]common.ParseFunc, accounts config.ExchangeArtAccounts) {
	m[accounts.V1Program] = parseEscrow(accounts.V1Program, 1, v1OpTrade, accounts.Escrow)
	m[accounts.V2Program] = parseEscrow(accounts.V2Program, 8, v2OpTrade, accounts.Escrow)
	m[accounts.AuctionProgram] = parseAuction(accounts)
}

func parseEscrow(program string, width int, opTrade int64, escrow string) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		ix := tx.FindInstruction(program, opTrade, width)
		if ix == nil {
			return nil, common.ErrInstructionMissing
		}
		event, err := common.ResolveEscrowTrade(tx, ix, common.EscrowTradeTable{
			Escrow:          escrow,
			PriceStart:      width,
			OwnerPos:        0,
			TokenAccountPos: 1,
		})
		if err != nil {
			return nil, err
		}
		event.MarketID = consts.MarketExchangeArt
		return event, nil
	}
}

func parseAuction(accounts config.ExchangeArtAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		ix := tx.FindInstruction(accounts.AuctionProgram, aucOpSettle, 8)
		if ix == nil {
			return nil, common.ErrInstructionMissing
		}
		event, err := common.ResolveAuctionSettle(tx, ix, ix.Account(0))
		if err != nil {
			return nil, err
		}
		event.MarketID = consts.MarketExchangeArt
		return event, nil
	}
}
