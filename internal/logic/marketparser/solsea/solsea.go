package solsea

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// Solsea 功能标识（1 字节）
const (
	opTrade int64 = 1 // 挂单 / 撤单 / 成交共用的托管指令
)

// 账户位置表：#0 发起方钱包  #2 token account
func RegisterParsers(m map[string]common.ParseFunc, accounts config.SolseaAccounts) {
	m[accounts.Program] = parse(accounts)
}

func parse(accounts config.SolseaAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		ix := tx.FindInstruction(accounts.Program, opTrade, 1)
		if ix == nil {
			return nil, common.ErrInstructionMissing
		}
		event, err := common.ResolveEscrowTrade(tx, ix, common.EscrowTradeTable{
			Escrow:          accounts.Escrow,
			PriceStart:      1,
			OwnerPos:        0,
			TokenAccountPos: 2,
		})
		if err != nil {
			return nil, err
		}
		event.MarketID = consts.MarketSolsea
		return event, nil
	}
}
