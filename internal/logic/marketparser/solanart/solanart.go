package solanart

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// Solanart 功能标识（1 字节）
const (
	opBid          int64 = 2
	opCancelBid    int64 = 3
	opTrade        int64 = 4 // 挂单 / 撤单 / 成交共用的托管指令
	opCloseAuction int64 = 5 // 拍卖结算；两段式 buy 的最终定价来源
)

// 账户位置表：
//
//	trade:        #0 发起方钱包  #3 token account
//	bid/cancel:   #0 买家钱包   #2 mint
//	closeAuction: #0 最终买家钱包
func RegisterParsers(m map[string]common.ParseFunc, accounts config.SolanartAccounts) {
	p := parse(accounts)
	m[accounts.Program] = p
	m[accounts.AuctionProgram] = p
}

func parse(accounts config.SolanartAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		// 两段式拍卖买入：同一交易里 buy 之后跟 close-auction 时，buy 只记录
		// 当前领先出价，最终价格与买家必须取 close-auction 指令。
		for _, program := range []string{accounts.AuctionProgram, accounts.Program} {
			if ix := tx.FindInstruction(program, opCloseAuction, 1); ix != nil {
				event, err := common.ResolveAuctionSettle(tx, ix, ix.Account(0))
				if err != nil {
					return nil, err
				}
				event.MarketID = consts.MarketSolanart
				return event, nil
			}
		}

		if ix := tx.FindInstruction(accounts.Program, opBid, 1); ix != nil {
			return bidEvent(tx, ix, core.EventBid)
		}
		if ix := tx.FindInstruction(accounts.Program, opCancelBid, 1); ix != nil {
			return bidEvent(tx, ix, core.EventCancelBidding)
		}

		ix := tx.FindInstruction(accounts.Program, opTrade, 1)
		if ix == nil {
			return nil, common.ErrInstructionMissing
		}
		event, err := common.ResolveEscrowTrade(tx, ix, common.EscrowTradeTable{
			Escrow:          accounts.Escrow,
			PriceStart:      1,
			OwnerPos:        0,
			TokenAccountPos: 3,
		})
		if err != nil {
			return nil, err
		}
		event.MarketID = consts.MarketSolanart
		return event, nil
	}
}

func bidEvent(tx *txmodel.Transaction, ix *txmodel.Instruction, typ core.EventType) (*core.SecondaryMarketEvent, error) {
	mint := ix.Account(2)
	if mint == "" {
		return nil, common.ErrTokenKeyUnresolved
	}
	var price uint64
	if typ == core.EventBid {
		p, err := ix.GetInt(1, 8)
		if err != nil {
			return nil, err
		}
		price = p
	}
	return &core.SecondaryMarketEvent{
		BlockchainID: consts.ChainIDSolana,
		MarketID:     consts.MarketSolanart,
		Timestamp:    tx.BlockTime,
		EventType:    typ,
		TokenKey:     mint,
		Price:        price,
		Buyer:        ix.Account(0),
		TxHash:       tx.Signature,
	}, nil
}
