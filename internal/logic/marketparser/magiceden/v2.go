package magiceden

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

// Magic Eden v2（auction-house 架构）功能标识（8 字节小端 anchor discriminator）
const (
	v2OpSell        int64 = 0x33b3121b0b6e0d51 // 挂单与改价共用
	v2OpCancelSell  int64 = 0x4fa4d41519b3a364
	v2OpExecuteSale int64 = 0x254ad99d4f312306
	v2OpBuy         int64 = 0x66c5353a0cdad13e
	v2OpCancelBuy   int64 = 0x2b1ae0b25c3f1cc2
)

// v2 参数布局：discriminator(8) 之后为若干 bump（u8），价格 u64 紧随其后。
// sell 为 3 个 bump（价格偏移 11），buy 为 2 个 bump（价格偏移 10）。
const (
	v2SellPriceStart = 11
	v2BuyPriceStart  = 10
)

// v2 账户位置表：
//
//	sell/cancel: #0 持有者钱包  #1 token account
//	executeSale: #0 买家钱包    #1 卖家钱包  #2 token account
//	buy/cancel:  #0 买家钱包    #4 token account
func parseV2(accounts config.MagicEdenAccounts) common.ParseFunc {
	return func(tx *txmodel.Transaction) (*core.SecondaryMarketEvent, error) {
		if ix := tx.FindInstruction(accounts.V2Program, v2OpSell, 8); ix != nil {
			return v2SellEvent(tx, ix)
		}
		if ix := tx.FindInstruction(accounts.V2Program, v2OpCancelSell, 8); ix != nil {
			return v2Assemble(tx, ix.Account(1), core.EventDelisting, 0, ix.Account(0), "")
		}
		if ix := tx.FindInstruction(accounts.V2Program, v2OpExecuteSale, 8); ix != nil {
			group := tx.FindInnerInstructions(ix)
			if group == nil {
				return nil, common.ErrInnerInstructionsMissing
			}
			price := common.AccumulateSystemTransfers(group)
			return v2Assemble(tx, ix.Account(2), core.EventSale, price, "", ix.Account(0))
		}
		if ix := tx.FindInstruction(accounts.V2Program, v2OpBuy, 8); ix != nil {
			price, err := ix.GetInt(v2BuyPriceStart, 8)
			if err != nil {
				return nil, err
			}
			return v2Assemble(tx, ix.Account(4), core.EventBid, price, "", ix.Account(0))
		}
		if ix := tx.FindInstruction(accounts.V2Program, v2OpCancelBuy, 8); ix != nil {
			return v2Assemble(tx, ix.Account(4), core.EventCancelBidding, 0, "", ix.Account(0))
		}
		return nil, common.ErrInstructionMissing
	}
}

// v2SellEvent 区分挂单与改价：挂单伴随 inner set-authority 将托管权移交
// escrow；没有这条 inner 指令说明 token 已在托管中，仅是价格变更。
func v2SellEvent(tx *txmodel.Transaction, ix *txmodel.Instruction) (*core.SecondaryMarketEvent, error) {
	price, err := ix.GetInt(v2SellPriceStart, 8)
	if err != nil {
		return nil, err
	}

	typ := core.EventPriceUpdate
	if group := tx.FindInnerInstructions(ix); group != nil {
		if _, _, ok := common.FindSetAuthority(group); ok {
			typ = core.EventListing
		}
	}
	return v2Assemble(tx, ix.Account(1), typ, price, ix.Account(0), "")
}

func v2Assemble(
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
		MarketID:     consts.MarketMagicEden,
		Timestamp:    tx.BlockTime,
		EventType:    typ,
		TokenKey:     mint,
		Price:        price,
		Owner:        owner,
		Buyer:        buyer,
		TxHash:       tx.Signature,
	}, nil
}
