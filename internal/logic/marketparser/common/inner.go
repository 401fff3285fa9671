package common

import (
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/txmodel"

	"github.com/mr-tron/base58"
)

// System Program 功能标识（4 字节小端）
const (
	sysTransfer uint64 = 2
)

// SPL Token 功能标识（1 字节）
const (
	tokTransfer     uint64 = 3
	tokSetAuthority uint64 = 6
)

// SystemTransfer 表示一条 system-transfer inner 指令的解析结果
type SystemTransfer struct {
	Source   string
	Dest     string
	Lamports uint64
}

// CollectSystemTransfers 提取 inner 指令组中的全部 system-transfer
func CollectSystemTransfers(group *txmodel.InnerInstructionsGroup) []SystemTransfer {
	if group == nil {
		return nil
	}
	var out []SystemTransfer
	for _, ix := range group.Instructions {
		if ix.Program != consts.SystemProgramStr {
			continue
		}
		fo, err := ix.FunctionOffset(0)
		if err != nil || fo != sysTransfer {
			continue
		}
		lamports, err := ix.GetInt(4, 8)
		if err != nil || len(ix.Accounts) < 2 {
			continue
		}
		out = append(out, SystemTransfer{
			Source:   ix.Account(0),
			Dest:     ix.Account(1),
			Lamports: lamports,
		})
	}
	return out
}

// AccumulateSystemTransfers 累加 inner 组中所有 system-transfer 的 lamports。
// 多笔转账对应成交价在卖家 / 创作者分成 / 平台费之间的拆分，聚合后才是成交总价。
func AccumulateSystemTransfers(group *txmodel.InnerInstructionsGroup) (total uint64) {
	for _, t := range CollectSystemTransfers(group) {
		total += t.Lamports
	}
	return total
}

// SumTransfersExcludingSource 累加来源账户不等于 exclude 的 system-transfer 金额。
// 拍卖结算中买家自身的小额手续费转账不计入成交价。
func SumTransfersExcludingSource(group *txmodel.InnerInstructionsGroup, exclude string) (total uint64) {
	for _, t := range CollectSystemTransfers(group) {
		if t.Source == exclude {
			continue
		}
		total += t.Lamports
	}
	return total
}

// FindSetAuthority 在 inner 组中查找 token-program 的 set-authority 指令，
// 返回 (被操作的 token account, 新授权地址)。新授权编码在指令数据的
// COption<Pubkey> 字段中（data[2] 为存在标志，后随 32 字节地址）。
func FindSetAuthority(group *txmodel.InnerInstructionsGroup) (tokenAccount, newAuthority string, ok bool) {
	if group == nil {
		return "", "", false
	}
	for _, ix := range group.Instructions {
		if ix.Program != consts.TokenProgramStr {
			continue
		}
		fo, err := ix.FunctionOffset(0)
		if err != nil || fo != tokSetAuthority {
			continue
		}
		if len(ix.Data) < 3 || len(ix.Accounts) < 1 {
			continue
		}
		if ix.Data[2] == 0 {
			// 授权被清空（revoke），目标地址不存在
			return ix.Account(0), "", true
		}
		if len(ix.Data) < 35 {
			continue
		}
		return ix.Account(0), base58.Encode(ix.Data[3:35]), true
	}
	return "", "", false
}

// FindTokenTransfer 返回 inner 组中第一条 token-program transfer 指令；
// 拍卖结算场景用它恢复 token account。
func FindTokenTransfer(group *txmodel.InnerInstructionsGroup) *txmodel.Instruction {
	if group == nil {
		return nil
	}
	for _, ix := range group.Instructions {
		if ix.Program != consts.TokenProgramStr {
			continue
		}
		fo, err := ix.FunctionOffset(0)
		if err == nil && fo == tokTransfer {
			return ix
		}
	}
	return nil
}
