package config

// MarketsConfig 汇总所有受支持市场的链上账户表。
// 每个字段均为 base58 地址字符串，以配置数据形式下发；内置默认值对应主网部署。
type MarketsConfig struct {
	MagicEden      MagicEdenAccounts      `yaml:"magic_eden"`
	AlphaArt       AlphaArtAccounts       `yaml:"alpha_art"`
	Solanart       SolanartAccounts       `yaml:"solanart"`
	DigitalEyes    DigitalEyesAccounts    `yaml:"digital_eyes"`
	Solsea         SolseaAccounts         `yaml:"solsea"`
	MonkeyBusiness MonkeyBusinessAccounts `yaml:"monkey_business"`
	OpenSea        OpenSeaAccounts        `yaml:"open_sea"`
	ExchangeArt    ExchangeArtAccounts    `yaml:"exchange_art"`
}

type MagicEdenAccounts struct {
	V1Program      string `yaml:"v1_program"`
	V2Program      string `yaml:"v2_program"`
	AuctionProgram string `yaml:"auction_program"`
	V1Authority    string `yaml:"v1_authority"` // v1 托管（escrow）授权账户
	V2Authority    string `yaml:"v2_authority"`
}

type AlphaArtAccounts struct {
	Program string `yaml:"program"`
	Escrow  string `yaml:"escrow"`
}

type SolanartAccounts struct {
	Program        string `yaml:"program"`
	AuctionProgram string `yaml:"auction_program"`
	Escrow         string `yaml:"escrow"`
}

type DigitalEyesAccounts struct {
	V1Program string `yaml:"v1_program"`
	V2Program string `yaml:"v2_program"`
	Escrow    string `yaml:"escrow"`
}

type SolseaAccounts struct {
	Program string `yaml:"program"`
	Escrow  string `yaml:"escrow"`
}

type MonkeyBusinessAccounts struct {
	V1Program string `yaml:"v1_program"`
	V2Program string `yaml:"v2_program"`
	V3Program string `yaml:"v3_program"`
	Escrow    string `yaml:"escrow"`
}

type OpenSeaAccounts struct {
	Program        string `yaml:"program"`
	AuctionProgram string `yaml:"auction_program"`
	Authority      string `yaml:"authority"`
}

type ExchangeArtAccounts struct {
	V1Program      string `yaml:"v1_program"`
	V2Program      string `yaml:"v2_program"`
	AuctionProgram string `yaml:"auction_program"`
	Escrow         string `yaml:"escrow"`
}

// 主网默认账户表
var defaultMarkets = MarketsConfig{
	MagicEden: MagicEdenAccounts{
		V1Program:      "MEisE1HzehtrDpAAT8PnLHjpSSkRYakotTuJRPjTpo8",
		V2Program:      "M2mx93ekt1fmXSVkTrUL9xVFHkmME8HTUi5Cyc5aF7K",
		AuctionProgram: "MEAuct5c4GDkSMmqRfkiTFLWmXNLZSEH5wRR1UyzVpp",
		V1Authority:    "GUfCR9mK6azb9vcpsxgXyj7XRPAKJd4KMHTTVvtncGgp",
		V2Authority:    "1BWutmTvYPwDtmw9abTkS4Ssr8no61spGAvW1X6NDix",
	},
	AlphaArt: AlphaArtAccounts{
		Program: "HZaWndaNWHFDd9Dhk5pqUUtsmoBCqzb1MLu3NAh1VX6B",
		Escrow:  "4pUQS4Jo2dsfWzt3VgHXy3H6RYnEDd11oWPiaM2rdAPw",
	},
	Solanart: SolanartAccounts{
		Program:        "CJsLwbP1iu5DuUikHEJnLfANgKy6stB2uFgvBBHoyxwz",
		AuctionProgram: "5ZfZAwP2m93waazg8DkrrVmsupeiPEvaEHowiUP7UAbJ",
		Escrow:         "3DGLLsuCgfbbygVpJjZXQkRWAEyX7zTTyBDZvaDDJPkf",
	},
	DigitalEyes: DigitalEyesAccounts{
		V1Program: "A7p8451ktDCHq5yYaHczeLMYsjRsAkzc3hCXcSrwYHU7",
		V2Program: "7t8zVJtPCFAqog1DcnB6Ku1AVKtWfHkCiPi1cAvcJyVF",
		Escrow:    "F4ghBzHFNgJxV4wEQDchU5i7n4XWWMBSaq7CuswGiVsr",
	},
	Solsea: SolseaAccounts{
		Program: "617jbWo616ggkDxvW1Le8pV38XLbVSyWY8ae6QUmGBAU",
		Escrow:  "AARTcKUzLYaWmK7D1otgyAoFn5vQqBiTrxjwrvjvsVJa",
	},
	MonkeyBusiness: MonkeyBusinessAccounts{
		V1Program: "GsTckjPbJfmfA1iqrbRQPGKEuTomr9RqFnGgfFT4PGgr",
		V2Program: "J7RagMKwSD5zJSbRQZU56ypHCNag2fiXPRFgxrhHfbkJ",
		V3Program: "SMBv3NsDXZpW3FTv7K6S9q7Y1Kx9ZgE3mLcRhEuVb4q",
		Escrow:    "GtBn43VZrGNXxmDPqmSqdsUVGY6hbbFTnPbR95DGJkgV",
	},
	OpenSea: OpenSeaAccounts{
		Program:        "hausS13jsjafwWwGqZTUQRmWyvyxn9EQpqMwV1PBBmk",
		AuctionProgram: "3o9d13qUvEuuauhFrVom1vuCzgNsJifeaBYDPquaT73Y",
		Authority:      "pAHAKoTJsAAe2ZcvTZUxoYzuygVAFAmbYmJYdWT886r",
	},
	ExchangeArt: ExchangeArtAccounts{
		V1Program:      "AmK5g2XcyptVLCFESBCJqoSfwV3znGoVYQnqEnaAZKWn",
		V2Program:      "EXArtG8rGcoJsxsZkvoTRbhcAhYbVEPmccJNJy4dkb9s",
		AuctionProgram: "EXAucwm3B8rL5hPVYbKLBwyKWYy9rzBuWmVoQSGJWzK8",
		Escrow:         "GDpXxjeHT6r4EiMKMGw89HbrJespRSKRECnEEx8NqDW3",
	},
}

// fillDefaults 为留空字段回填主网默认地址
func (m *MarketsConfig) fillDefaults() {
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	d := defaultMarkets
	fill(&m.MagicEden.V1Program, d.MagicEden.V1Program)
	fill(&m.MagicEden.V2Program, d.MagicEden.V2Program)
	fill(&m.MagicEden.AuctionProgram, d.MagicEden.AuctionProgram)
	fill(&m.MagicEden.V1Authority, d.MagicEden.V1Authority)
	fill(&m.MagicEden.V2Authority, d.MagicEden.V2Authority)
	fill(&m.AlphaArt.Program, d.AlphaArt.Program)
	fill(&m.AlphaArt.Escrow, d.AlphaArt.Escrow)
	fill(&m.Solanart.Program, d.Solanart.Program)
	fill(&m.Solanart.AuctionProgram, d.Solanart.AuctionProgram)
	fill(&m.Solanart.Escrow, d.Solanart.Escrow)
	fill(&m.DigitalEyes.V1Program, d.DigitalEyes.V1Program)
	fill(&m.DigitalEyes.V2Program, d.DigitalEyes.V2Program)
	fill(&m.DigitalEyes.Escrow, d.DigitalEyes.Escrow)
	fill(&m.Solsea.Program, d.Solsea.Program)
	fill(&m.Solsea.Escrow, d.Solsea.Escrow)
	fill(&m.MonkeyBusiness.V1Program, d.MonkeyBusiness.V1Program)
	fill(&m.MonkeyBusiness.V2Program, d.MonkeyBusiness.V2Program)
	fill(&m.MonkeyBusiness.V3Program, d.MonkeyBusiness.V3Program)
	fill(&m.MonkeyBusiness.Escrow, d.MonkeyBusiness.Escrow)
	fill(&m.OpenSea.Program, d.OpenSea.Program)
	fill(&m.OpenSea.AuctionProgram, d.OpenSea.AuctionProgram)
	fill(&m.OpenSea.Authority, d.OpenSea.Authority)
	fill(&m.ExchangeArt.V1Program, d.ExchangeArt.V1Program)
	fill(&m.ExchangeArt.V2Program, d.ExchangeArt.V2Program)
	fill(&m.ExchangeArt.AuctionProgram, d.ExchangeArt.AuctionProgram)
	fill(&m.ExchangeArt.Escrow, d.ExchangeArt.Escrow)
}
