package consts

import "nft-indexer-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	// 基础 Programs
	SystemProgramStr          = "11111111111111111111111111111111"
	TokenProgramStr           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenProgram2022Str       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	TokenMetaProgramIdStr     = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	ComputeBudgetProgramIdStr = "ComputeBudget111111111111111111111111111111"

	// 原生 SOL 封装
	WSOLMintStr = "So11111111111111111111111111111111111111112"
)

var (
	// Programs
	SystemProgram          = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram           = types.PubkeyFromBase58(TokenProgramStr)
	TokenProgram2022       = types.PubkeyFromBase58(TokenProgram2022Str)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)
	TokenMetaProgram       = types.PubkeyFromBase58(TokenMetaProgramIdStr)

	WSOLMint = types.PubkeyFromBase58(WSOLMintStr)
)
