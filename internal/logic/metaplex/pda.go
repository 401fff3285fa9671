package metaplex

import (
	"fmt"

	"nft-indexer-sol/internal/consts"

	"github.com/blocto/solana-go-sdk/common"
)

// DeriveMetadataAccount 由 mint 地址确定性推导其 Metaplex 元数据账户地址
// （PDA，种子为 "metadata" + 元数据程序地址 + mint，纯计算，无网络调用）。
func DeriveMetadataAccount(mintKey string) (string, error) {
	mint := common.PublicKeyFromString(mintKey)
	program := common.PublicKeyFromString(consts.TokenMetaProgramIdStr)

	seeds := [][]byte{
		[]byte("metadata"),
		program.Bytes(),
		mint.Bytes(),
	}
	pda, _, err := common.FindProgramAddress(seeds, program)
	if err != nil {
		return "", fmt.Errorf("derive metadata account for %s: %w", mintKey, err)
	}
	return pda.ToBase58(), nil
}
