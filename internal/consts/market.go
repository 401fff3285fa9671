package consts

// MarketID 标识一个二级市场（跨链唯一，与存储层 market_id 字段一致）
type MarketID uint32

const (
	MarketUnknown        MarketID = 0
	MarketMagicEden      MarketID = 101
	MarketAlphaArt       MarketID = 102
	MarketSolanart       MarketID = 103
	MarketDigitalEyes    MarketID = 104
	MarketSolsea         MarketID = 105
	MarketMonkeyBusiness MarketID = 106
	MarketOpenSea        MarketID = 107
	MarketExchangeArt    MarketID = 108
)

func (m MarketID) String() string {
	switch m {
	case MarketMagicEden:
		return "magiceden"
	case MarketAlphaArt:
		return "alphaart"
	case MarketSolanart:
		return "solanart"
	case MarketDigitalEyes:
		return "digitaleyes"
	case MarketSolsea:
		return "solsea"
	case MarketMonkeyBusiness:
		return "monkeybusiness"
	case MarketOpenSea:
		return "opensea"
	case MarketExchangeArt:
		return "exchangeart"
	default:
		return "unknown"
	}
}
