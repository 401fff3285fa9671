package txmodel

import (
	"encoding/binary"
	"errors"
	"fmt"

	"nft-indexer-sol/internal/consts"

	"github.com/mr-tron/base58"
)

// ErrDataOutOfRange 表示读取越过指令 data 末尾（属解码失败，不是 panic）
var ErrDataOutOfRange = errors.New("instruction data read out of range")

// Instruction 表示链上的一条指令（主指令或 inner 指令）。
// Data 在构造阶段已由 base58 一次性解码为字节序列，避免惰性解码带来的隐藏可变状态。
type Instruction struct {
	Program  string   // 被调用程序的地址
	Accounts []string // 指令涉及的账户地址列表（已按索引解析），保持原始顺序
	Data     []byte   // base58 解码后的指令数据
	Index    int      // 主指令在交易中的序号；inner 指令为 -1
}

// FunctionOffset 返回指令开头的功能标识（function offset）。
// 宽度规则：System Program 固定 4 字节小端；Token Program 固定 1 字节；
// 其余（市场合约）程序由调用方指定宽度（1 或 8 字节，小端）。
func (ix *Instruction) FunctionOffset(width int) (uint64, error) {
	switch ix.Program {
	case consts.SystemProgramStr:
		width = 4
	case consts.TokenProgramStr:
		width = 1
	}
	switch width {
	case 1:
		if len(ix.Data) < 1 {
			return 0, ErrDataOutOfRange
		}
		return uint64(ix.Data[0]), nil
	case 4:
		if len(ix.Data) < 4 {
			return 0, ErrDataOutOfRange
		}
		return uint64(binary.LittleEndian.Uint32(ix.Data[:4])), nil
	case 8:
		if len(ix.Data) < 8 {
			return 0, ErrDataOutOfRange
		}
		return binary.LittleEndian.Uint64(ix.Data[:8]), nil
	default:
		return 0, fmt.Errorf("unsupported function offset width: %d", width)
	}
}

// GetInt 读取 data[start, start+length) 的小端无符号整数（length 最大 8 字节）
func (ix *Instruction) GetInt(start, length int) (uint64, error) {
	if length <= 0 || length > 8 {
		return 0, fmt.Errorf("invalid int length: %d", length)
	}
	if start < 0 || start+length > len(ix.Data) {
		return 0, ErrDataOutOfRange
	}
	var buf [8]byte
	copy(buf[:], ix.Data[start:start+length])
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// GetStr 读取 data[start, start+length) 并返回字符串；asBase58 为真时按 base58 编码
// （用于提取内嵌的 32 字节地址）。
func (ix *Instruction) GetStr(start, length int, asBase58 bool) (string, error) {
	if start < 0 || length < 0 || start+length > len(ix.Data) {
		return "", ErrDataOutOfRange
	}
	sub := ix.Data[start : start+length]
	if asBase58 {
		return base58.Encode(sub), nil
	}
	return string(sub), nil
}

// Account 返回第 i 个账户地址；越界返回空串（调用方按解码失败处理）
func (ix *Instruction) Account(i int) string {
	if i < 0 || i >= len(ix.Accounts) {
		return ""
	}
	return ix.Accounts[i]
}

// InnerInstructionsGroup 表示挂在某条主指令之下的 inner 指令集合
type InnerInstructionsGroup struct {
	OuterIndex   int // 对应的主指令 Index
	Instructions []*Instruction
}
