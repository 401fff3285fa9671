package magiceden

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// Magic Eden 拍卖程序功能标识（8 字节小端）
const (
	aucOpSettle int64 = 0x71b4d1b9307a8013
)

// settle 账户位置表：#0 买家（最高出价者）钱包
func parseAuction(accounts config.MagicEdenAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		ix := tx.FindInstruction(accounts.AuctionProgram, aucOpSettle, 8)
		if ix == nil {
			return nil, common.ErrInstructionMissing
		}
		event, err := common.ResolveAuctionSettle(tx, ix, ix.Account(0))
		if err != nil {
			return nil, err
		}
		event.MarketID = consts.MarketMagicEden
		return event, nil
	}
}
