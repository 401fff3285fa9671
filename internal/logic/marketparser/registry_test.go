package marketparser

import (
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/logic/marketparser/common"
	"nft-indexer-sol/internal/logic/txmodel"
)

const (
	sigSale    = "4DHy1zyMX7CaxSbSjU9WzQ5C9M2yBvL8dqXpKkT5bmrcYkhxzBrpQ6UgE2NSsT6fhuUqhbtpMjcEZMJr2zvL91aM"
	walletA    = "okkVSrkBXGfMHvEfKGUW73XmJYbP4ojPbWsBXbYjvZf"   // 卖家 / 挂单方
	walletB    = "BXxoKHT6CYtRTboZDaJee1ahrHoQSN6RJk3HAKpUWGHa"  // 买家
	tokenAcctA = "FDNXLMaYato76JB1v1oWYScudvMXT5BDjyjo1Cq9s52e"  // NFT token account
	mintSale   = "8ag4raw8snR6GbM6znQYv9k4845zs5NYrDZdoxnxaNwK"  // 成交场景 mint
	mintList   = "2Pw69uefPXeqD2PvLjDMD3CohKWFixKVwkf5yJSzAu5K"  // 挂单场景 mint
	creatorAcc = "GUfCR9mK6azb9vcpsxgXyj7XRPAKJd4KMHTTVvtncGgp"  // 创作者分成收款方
)

func testMarkets(t *testing.T) config.MarketsConfig {
	t.Helper()
	var c config.IndexerConfig
	c.Normalize()
	return c.Markets
}

func leU64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func leU32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

// sysTransferIx 构造一条 system-transfer inner 指令（4 字节功能标识 + u64 lamports）
func sysTransferIx(src, dst string, lamports uint64) *txmodel.Instruction {
	return &txmodel.Instruction{
		Program:  consts.SystemProgramStr,
		Accounts: []string{src, dst},
		Data:     append(leU32(2), leU64(lamports)...),
		Index:    -1,
	}
}

// setAuthorityIx 构造一条 token set-authority inner 指令，
// 新授权以 COption<Pubkey> 编码在数据中
func setAuthorityIx(t *testing.T, tokenAccount, newAuthority string) *txmodel.Instruction {
	t.Helper()
	raw, err := base58.Decode(newAuthority)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	data := append([]byte{6, 2, 1}, raw...)
	return &txmodel.Instruction{
		Program:  consts.TokenProgramStr,
		Accounts: []string{tokenAccount},
		Data:     data,
		Index:    -1,
	}
}

func nftBalance(tx *txmodel.Transaction, tokenAccount, mint, owner string) {
	tx.AccountKeys = append(tx.AccountKeys, tokenAccount)
	tx.PostTokenBalances = append(tx.PostTokenBalances, txmodel.PostTokenBalance{
		AccountIndex: len(tx.AccountKeys) - 1,
		Mint:         mint,
		Owner:        owner,
		Amount:       "1",
	})
}

// TestMagicEdenV1Sale 覆盖 Magic Eden v1 成交：多笔 system-transfer 聚合成交价，
// 买家取 set-authority 的新授权目标
func TestMagicEdenV1Sale(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.MagicEden.V1Program,
		Accounts: []string{walletA, tokenAcctA},
		Data:     append(leU64(0x4c6f2b543a84eb4d), leU64(0)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640995200,
		Signature:    sigSale,
		AccountKeys:  []string{walletA, walletB, markets.MagicEden.V1Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				sysTransferIx(walletB, walletA, 9_000_000_000),
				sysTransferIx(walletB, creatorAcc, 1_000_000_000),
				setAuthorityIx(t, tokenAcctA, walletB),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintSale, walletB)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)

	assert.Equal(t, core.EventSale, event.EventType)
	assert.Equal(t, consts.MarketMagicEden, event.MarketID)
	assert.Equal(t, uint64(10_000_000_000), event.Price)
	assert.Equal(t, mintSale, event.TokenKey)
	assert.Equal(t, walletB, event.Buyer)
	assert.Empty(t, event.Owner)
	assert.Equal(t, sigSale, event.TxHash)
	assert.Equal(t, int64(1640995200), event.Timestamp)
	assert.NoError(t, event.Validate())
}

// TestAlphaArtListing 覆盖 AlphaArt 挂单：托管权移交 escrow，价格取主指令数据
func TestAlphaArtListing(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.AlphaArt.Program,
		Accounts: []string{walletA, tokenAcctA},
		Data:     append([]byte{2}, leU64(38_000_000_000)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640995300,
		Signature:    sigSale,
		AccountKeys:  []string{walletA, markets.AlphaArt.Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				setAuthorityIx(t, tokenAcctA, markets.AlphaArt.Escrow),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintList, walletA)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)

	assert.Equal(t, core.EventListing, event.EventType)
	assert.Equal(t, consts.MarketAlphaArt, event.MarketID)
	assert.Equal(t, uint64(38_000_000_000), event.Price)
	assert.Equal(t, mintList, event.TokenKey)
	assert.Equal(t, walletA, event.Owner)
	assert.Empty(t, event.Buyer)
}

// TestAlphaArtDelisting 覆盖撤单：托管权交还给非 escrow 地址
func TestAlphaArtDelisting(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.AlphaArt.Program,
		Accounts: []string{walletA, tokenAcctA},
		Data:     append([]byte{2}, leU64(0)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640995400,
		Signature:    sigSale,
		AccountKeys:  []string{walletA, markets.AlphaArt.Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				setAuthorityIx(t, tokenAcctA, walletA),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintList, walletA)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)
	assert.Equal(t, core.EventDelisting, event.EventType)
	assert.Equal(t, walletA, event.Owner)
	assert.Equal(t, uint64(0), event.Price)
}

// TestMagicEdenV2ListingVsPriceUpdate 覆盖 v2 sell 的判别：
// 有 inner set-authority 为挂单，没有则 token 已在托管中，属改价
func TestMagicEdenV2ListingVsPriceUpdate(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	sellData := append(leU64(0x33b3121b0b6e0d51), 0xFE, 0xFD, 0xFC)
	sellData = append(sellData, leU64(5_000_000_000)...)

	build := func(withAuthority bool) *txmodel.Transaction {
		ix := &txmodel.Instruction{
			Program:  markets.MagicEden.V2Program,
			Accounts: []string{walletA, tokenAcctA},
			Data:     sellData,
			Index:    0,
		}
		tx := &txmodel.Transaction{
			BlockTime:    1640995500,
			Signature:    sigSale,
			AccountKeys:  []string{walletA, markets.MagicEden.V2Program},
			Instructions: []*txmodel.Instruction{ix},
		}
		if withAuthority {
			tx.InnerGroups = []*txmodel.InnerInstructionsGroup{{
				OuterIndex: 0,
				Instructions: []*txmodel.Instruction{
					setAuthorityIx(t, tokenAcctA, markets.MagicEden.V2Authority),
				},
			}}
		}
		nftBalance(tx, tokenAcctA, mintList, walletA)
		return tx
	}

	listing, err := reg.Dispatch(build(true))
	require.NoError(t, err)
	assert.Equal(t, core.EventListing, listing.EventType)
	assert.Equal(t, uint64(5_000_000_000), listing.Price)
	assert.Equal(t, walletA, listing.Owner)

	update, err := reg.Dispatch(build(false))
	require.NoError(t, err)
	assert.Equal(t, core.EventPriceUpdate, update.EventType)
	assert.Equal(t, uint64(5_000_000_000), update.Price)
	assert.Equal(t, mintList, update.TokenKey)
}

// TestMagicEdenV1Bid 覆盖 bid / cancel-bid 的账户与价格位置
func TestMagicEdenV1Bid(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	tx := &txmodel.Transaction{
		BlockTime:   1640995600,
		Signature:   sigSale,
		AccountKeys: []string{walletB, markets.MagicEden.V1Program},
		Instructions: []*txmodel.Instruction{{
			Program:  markets.MagicEden.V1Program,
			Accounts: []string{walletB, tokenAcctA, mintSale},
			Data:     append(leU64(0x1aa5d1d9d1e7cd12), leU64(7_700_000_000)...),
			Index:    0,
		}},
	}

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)
	assert.Equal(t, core.EventBid, event.EventType)
	assert.Equal(t, uint64(7_700_000_000), event.Price)
	assert.Equal(t, mintSale, event.TokenKey)
	assert.Equal(t, walletB, event.Buyer)
}

// TestSolanartCloseAuctionOverridesBid 覆盖两段式拍卖买入：同一交易里
// buy 只记录领先出价，最终价格与买家取 close-auction 结算；
// 买家自付的手续费转账不计入结算价
func TestSolanartCloseAuctionOverridesBid(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	bidIx := &txmodel.Instruction{
		Program:  markets.Solanart.Program,
		Accounts: []string{walletB, tokenAcctA, mintSale},
		Data:     append([]byte{2}, leU64(8_000_000_000)...),
		Index:    0,
	}
	settleIx := &txmodel.Instruction{
		Program:  markets.Solanart.AuctionProgram,
		Accounts: []string{walletB},
		Data:     []byte{5},
		Index:    1,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640996000,
		Signature:    sigSale,
		AccountKeys:  []string{walletB, walletA, markets.Solanart.Program, markets.Solanart.AuctionProgram},
		Instructions: []*txmodel.Instruction{bidIx, settleIx},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 1,
			Instructions: []*txmodel.Instruction{
				sysTransferIx(walletB, markets.Solanart.Escrow, 10_000_000), // 买家手续费，不计价
				sysTransferIx(markets.Solanart.Escrow, walletA, 8_500_000_000),
				sysTransferIx(markets.Solanart.Escrow, creatorAcc, 500_000_000),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintSale, walletB)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)
	assert.Equal(t, core.EventSaleAuction, event.EventType)
	assert.Equal(t, consts.MarketSolanart, event.MarketID)
	assert.Equal(t, uint64(9_000_000_000), event.Price) // 不是 bid 的 8e9，也不含买家手续费
	assert.Equal(t, walletB, event.Buyer)
	assert.Equal(t, mintSale, event.TokenKey)
}

// TestDigitalEyesV1Sale 覆盖 DigitalEyes v1 buy：成交价聚合全部 inner 转账
func TestDigitalEyesV1Sale(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.DigitalEyes.V1Program,
		Accounts: []string{walletB, tokenAcctA},
		Data:     append([]byte{2}, leU64(0)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640996100,
		Signature:    sigSale,
		AccountKeys:  []string{walletB, walletA, markets.DigitalEyes.V1Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				sysTransferIx(walletB, walletA, 2_800_000_000),
				sysTransferIx(walletB, creatorAcc, 200_000_000),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintSale, walletB)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)
	assert.Equal(t, core.EventSale, event.EventType)
	assert.Equal(t, consts.MarketDigitalEyes, event.MarketID)
	assert.Equal(t, uint64(3_000_000_000), event.Price)
	assert.Equal(t, walletB, event.Buyer)
	assert.Equal(t, mintSale, event.TokenKey)
}

// TestSolseaListing 覆盖 Solsea 挂单：托管指令共用 ResolveEscrowTrade，
// token account 在账户位置 #2
func TestSolseaListing(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.Solsea.Program,
		Accounts: []string{walletA, mintList, tokenAcctA},
		Data:     append([]byte{1}, leU64(1_500_000_000)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640996200,
		Signature:    sigSale,
		AccountKeys:  []string{walletA, markets.Solsea.Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				setAuthorityIx(t, tokenAcctA, markets.Solsea.Escrow),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintList, walletA)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)
	assert.Equal(t, core.EventListing, event.EventType)
	assert.Equal(t, consts.MarketSolsea, event.MarketID)
	assert.Equal(t, uint64(1_500_000_000), event.Price)
	assert.Equal(t, walletA, event.Owner)
	assert.Equal(t, mintList, event.TokenKey)
}

// TestMonkeyBusinessV3PriceUpdate 覆盖 v3 改价：8 字节功能标识后随新价格
func TestMonkeyBusinessV3PriceUpdate(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.MonkeyBusiness.V3Program,
		Accounts: []string{walletA, tokenAcctA},
		Data:     append(leU64(0x57f3c2097e14ba26), leU64(66_000_000_000)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640996300,
		Signature:    sigSale,
		AccountKeys:  []string{walletA, markets.MonkeyBusiness.V3Program},
		Instructions: []*txmodel.Instruction{ix},
	}
	nftBalance(tx, tokenAcctA, mintList, walletA)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)
	assert.Equal(t, core.EventPriceUpdate, event.EventType)
	assert.Equal(t, consts.MarketMonkeyBusiness, event.MarketID)
	assert.Equal(t, uint64(66_000_000_000), event.Price)
	assert.Equal(t, walletA, event.Owner)
	assert.Equal(t, mintList, event.TokenKey)
}

// TestOpenSeaExecuteSale 覆盖 auction-house execute-sale：
// 买家自付的手续费转账排除在成交价外
func TestOpenSeaExecuteSale(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.OpenSea.Program,
		Accounts: []string{walletB, walletA, tokenAcctA},
		Data:     leU64(0x7a9f02b8c416dd50),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640996400,
		Signature:    sigSale,
		AccountKeys:  []string{walletB, walletA, markets.OpenSea.Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				sysTransferIx(walletB, markets.OpenSea.Authority, 5_000_000), // 买家手续费
				sysTransferIx(markets.OpenSea.Authority, walletA, 12_000_000_000),
				sysTransferIx(markets.OpenSea.Authority, creatorAcc, 600_000_000),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintSale, walletB)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)
	assert.Equal(t, core.EventSale, event.EventType)
	assert.Equal(t, consts.MarketOpenSea, event.MarketID)
	assert.Equal(t, uint64(12_600_000_000), event.Price)
	assert.Equal(t, walletB, event.Buyer)
	assert.Equal(t, mintSale, event.TokenKey)
}

// TestExchangeArtV2Listing 覆盖 ExchangeArt v2 托管挂单（8 字节功能标识）
func TestExchangeArtV2Listing(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.ExchangeArt.V2Program,
		Accounts: []string{walletA, tokenAcctA},
		Data:     append(leU64(0x30ad9e1f74c2856b), leU64(4_200_000_000)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640996500,
		Signature:    sigSale,
		AccountKeys:  []string{walletA, markets.ExchangeArt.V2Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				setAuthorityIx(t, tokenAcctA, markets.ExchangeArt.Escrow),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintList, walletA)

	event, err := reg.Dispatch(tx)
	require.NoError(t, err)
	assert.Equal(t, core.EventListing, event.EventType)
	assert.Equal(t, consts.MarketExchangeArt, event.MarketID)
	assert.Equal(t, uint64(4_200_000_000), event.Price)
	assert.Equal(t, walletA, event.Owner)
}

// TestDispatchRepeatable 覆盖重复解析：同一交易解析两次，事件逐字段一致
// 且交易对象不被解析过程修改（重投 / 重放路径依赖这一点）
func TestDispatchRepeatable(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.MagicEden.V1Program,
		Accounts: []string{walletA, tokenAcctA},
		Data:     append(leU64(0x4c6f2b543a84eb4d), leU64(0)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640995200,
		Signature:    sigSale,
		AccountKeys:  []string{walletA, walletB, markets.MagicEden.V1Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				sysTransferIx(walletB, walletA, 9_000_000_000),
				sysTransferIx(walletB, creatorAcc, 1_000_000_000),
				setAuthorityIx(t, tokenAcctA, walletB),
			},
		}},
	}
	nftBalance(tx, tokenAcctA, mintSale, walletB)

	first, err := reg.Dispatch(tx)
	require.NoError(t, err)
	second, err := reg.Dispatch(tx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.DedupKey(), second.DedupKey())
	assert.Equal(t, first.SortKey(), second.SortKey())
}

// TestDispatchNoMatchingParser 覆盖交易不含任何已注册市场程序的场景
func TestDispatchNoMatchingParser(t *testing.T) {
	reg := NewRegistry(testMarkets(t))

	tx := &txmodel.Transaction{
		Signature:   sigSale,
		AccountKeys: []string{walletA, walletB, consts.SystemProgramStr},
		Instructions: []*txmodel.Instruction{{
			Program:  consts.SystemProgramStr,
			Accounts: []string{walletA, walletB},
			Data:     append(leU32(2), leU64(100)...),
			Index:    0,
		}},
	}

	event, err := reg.Dispatch(tx)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrNoMatchingParser)
}

// TestDispatchTokenKeyUnresolved 覆盖 postTokenBalances 无法恢复 mint 的场景
func TestDispatchTokenKeyUnresolved(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	ix := &txmodel.Instruction{
		Program:  markets.AlphaArt.Program,
		Accounts: []string{walletA, tokenAcctA},
		Data:     append([]byte{2}, leU64(1)...),
		Index:    0,
	}
	tx := &txmodel.Transaction{
		BlockTime:    1640995700,
		Signature:    sigSale,
		AccountKeys:  []string{walletA, markets.AlphaArt.Program},
		Instructions: []*txmodel.Instruction{ix},
		InnerGroups: []*txmodel.InnerInstructionsGroup{{
			OuterIndex: 0,
			Instructions: []*txmodel.Instruction{
				setAuthorityIx(t, tokenAcctA, markets.AlphaArt.Escrow),
			},
		}},
		// 没有 amount == "1" 的余额快照
	}

	_, err := reg.Dispatch(tx)
	assert.ErrorIs(t, err, common.ErrTokenKeyUnresolved)
}

// TestDispatchInnerInstructionsMissing 覆盖托管指令缺 inner 组的场景
func TestDispatchInnerInstructionsMissing(t *testing.T) {
	markets := testMarkets(t)
	reg := NewRegistry(markets)

	tx := &txmodel.Transaction{
		BlockTime:   1640995800,
		Signature:   sigSale,
		AccountKeys: []string{walletA, markets.AlphaArt.Program},
		Instructions: []*txmodel.Instruction{{
			Program:  markets.AlphaArt.Program,
			Accounts: []string{walletA, tokenAcctA},
			Data:     append([]byte{2}, leU64(1)...),
			Index:    0,
		}},
	}

	_, err := reg.Dispatch(tx)
	assert.ErrorIs(t, err, common.ErrInnerInstructionsMissing)
}
