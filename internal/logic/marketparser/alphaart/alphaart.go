package alphaart

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// AlphaArt 功能标识（1 字节）
const (
	opTrade int64 = 2 // 挂单 / 撤单 / 成交共用的托管指令
)

// 账户位置表：#0 发起方钱包  #1 token account
func RegisterParsers(m map[string]common.ParseFunc, accounts config.AlphaArtAccounts) {
	m[accounts.Program] = parse(accounts)
}

func parse(accounts config.AlphaArtAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		ix := tx.FindInstruction(accounts.Program, opTrade, 1)
		if ix == nil {
			return nil, common.ErrInstructionMissing
		}
		event, err := common.ResolveEscrowTrade(tx, ix, common.EscrowTradeTable{
			Escrow:          accounts.Escrow,
			PriceStart:      1,
			OwnerPos:        0,
			TokenAccountPos: 1,
		})
		if err != nil {
			return nil, err
		}
		event.MarketID = consts.MarketAlphaArt
		return event, nil
	}
}
