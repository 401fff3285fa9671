package magiceden

import (
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/logic/marketparser/common"
)

// RegisterParsers 注册 Magic Eden 三个程序版本的解析器。
// 程序地址与托管授权地址来自配置注入，解析器内不持有任何硬编码账户。
func RegisterParsers(m map[string]common.ParseFunc, accounts config.MagicEdenAccounts) {
	m[accounts.V1Program] = parseV1(accounts)
	m[accounts.V2Program] = parseV2(accounts)
	m[accounts.AuctionProgram] = parseAuction(accounts)
}
