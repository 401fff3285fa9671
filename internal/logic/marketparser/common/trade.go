package common

import (
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/txmodel"
)

// EscrowTradeTable 描述一个托管型市场指令的定位表：
// 价格字段在 data 中的起始偏移、owner 与 token account 的账户位置，
// 以及该市场的托管（escrow）授权地址。
type EscrowTradeTable struct {
	Escrow          string
	PriceStart      int // 价格 u64 在 data 中的偏移
	OwnerPos        int // listing/delisting 时 owner 的账户位置
	TokenAccountPos int // token account 的账户位置；-1 表示仅依赖 postTokenBalances
}

// ResolveEscrowTrade 执行托管型市场（Magic Eden v1 / AlphaArt / Solanart /
// Solsea / ExchangeArt）共用的 sale / listing / delisting 判别：
//
//  1. 累加 inner 组内全部 system-transfer 金额；金额 > 0 即为 Sale，
//     买家取 set-authority 指令的新授权账户（托管权交还给买家）；
//  2. 否则检查 set-authority：新授权等于市场托管地址 → Listing（价格取
//     主指令 data 的价格字段）；不等于 → Delisting（owner 为新授权目标）。
//
// 返回的事件不含 MarketID，由各解析器补齐。
func ResolveEscrowTrade(
	tx *txmodel.Transaction,
	ix *txmodel.Instruction,
	table EscrowTradeTable,
) (*core.SecondaryMarketEvent, error) {
	group := tx.FindInnerInstructions(ix)
	if group == nil {
		return nil, ErrInnerInstructionsMissing
	}

	transfers := CollectSystemTransfers(group)
	var accPrice uint64
	for _, t := range transfers {
		accPrice += t.Lamports
	}

	authTokenAccount, newAuthority, hasAuth := FindSetAuthority(group)

	event := &core.SecondaryMarketEvent{
		BlockchainID: consts.ChainIDSolana,
		Timestamp:    tx.BlockTime,
		TxHash:       tx.Signature,
	}

	tokenAccount := authTokenAccount
	if tokenAccount == "" && table.TokenAccountPos >= 0 {
		tokenAccount = ix.Account(table.TokenAccountPos)
	}

	switch {
	case accPrice > 0:
		// 成交：买家为托管权移交目标；无 set-authority 时退回转账付款方
		event.EventType = core.EventSale
		event.Price = accPrice
		if hasAuth && newAuthority != "" {
			event.Buyer = newAuthority
		} else {
			event.Buyer = transfers[0].Source
		}
	case hasAuth && newAuthority == table.Escrow:
		// 挂单：托管权移交给市场 escrow，价格在主指令数据中
		price, err := ix.GetInt(table.PriceStart, 8)
		if err != nil {
			return nil, err
		}
		event.EventType = core.EventListing
		event.Price = price
		event.Owner = ix.Account(table.OwnerPos)
	case hasAuth:
		// 撤单：托管权交还原持有者
		event.EventType = core.EventDelisting
		event.Owner = newAuthority
	default:
		return nil, ErrInnerInstructionsMissing
	}

	mint, owner, ok := tx.FindTokenAddressAndOwner(tokenAccount)
	if !ok {
		return nil, ErrTokenKeyUnresolved
	}
	event.TokenKey = mint
	// delisting 场景下 set-authority 目标缺失时退回余额快照中的持有者
	if event.EventType == core.EventDelisting && event.Owner == "" {
		event.Owner = owner
	}
	return event, nil
}

// ResolveAuctionSettle 执行拍卖结算（Magic Eden auction / Solanart /
// OpenSea auction）共用的价格聚合：inner 组中至多一条 token-transfer 仅用于
// 恢复 token account；所有来源非买家的 system-transfer 金额之和为结算价
// （买家自付的小额手续费被排除）。
func ResolveAuctionSettle(
	tx *txmodel.Transaction,
	ix *txmodel.Instruction,
	buyer string,
) (*core.SecondaryMarketEvent, error) {
	group := tx.FindInnerInstructions(ix)
	if group == nil {
		return nil, ErrInnerInstructionsMissing
	}

	price := SumTransfersExcludingSource(group, buyer)

	tokenAccount := ""
	if tt := FindTokenTransfer(group); tt != nil && len(tt.Accounts) >= 2 {
		tokenAccount = tt.Account(1)
	}
	mint, _, ok := tx.FindTokenAddressAndOwner(tokenAccount)
	if !ok {
		return nil, ErrTokenKeyUnresolved
	}

	return &core.SecondaryMarketEvent{
		BlockchainID: consts.ChainIDSolana,
		Timestamp:    tx.BlockTime,
		EventType:    core.EventSaleAuction,
		TokenKey:     mint,
		Price:        price,
		Buyer:        buyer,
		TxHash:       tx.Signature,
	}, nil
}
