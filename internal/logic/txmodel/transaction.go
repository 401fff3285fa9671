package txmodel

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// ErrMalformedTransaction 表示交易不满足解析前置条件：
// 链上执行失败（meta.err 非空，不携带任何市场状态变更）或必需字段缺失。
var ErrMalformedTransaction = errors.New("malformed transaction")

// PostTokenBalance 表示交易执行后的一条 token 余额快照
type PostTokenBalance struct {
	AccountIndex int    // 对应 AccountKeys 中的下标
	Mint         string // token 的 mint 地址
	Owner        string // token account 的持有者
	Amount       string // uiTokenAmount.amount 原始字符串（最小单位）
}

// Transaction 表示一笔已确认交易的解析结果，是各市场解析器的唯一输入。
// 每次摄取构造一次，解析完成后即丢弃；指令中的账户引用均为 AccountKeys 下标，
// 越界解析按解码失败处理。
type Transaction struct {
	Slot              uint64
	BlockTime         int64 // Unix 秒
	Fee               uint64
	Signature         string
	AccountKeys       []string
	Instructions      []*Instruction
	InnerGroups       []*InnerInstructionsGroup
	PostTokenBalances []PostTokenBalance
}

// 原始 JSON-RPC confirmed transaction 结构（encoding=json）
type rawConfirmedTx struct {
	Slot      *uint64  `json:"slot"`
	BlockTime *int64   `json:"blockTime"`
	Meta      *rawMeta `json:"meta"`
	Transaction *struct {
		Signatures []string    `json:"signatures"`
		Message    *rawMessage `json:"message"`
	} `json:"transaction"`
}

type rawMeta struct {
	Err               json.RawMessage        `json:"err"`
	Fee               uint64                 `json:"fee"`
	InnerInstructions []rawInnerGroup        `json:"innerInstructions"`
	PostTokenBalances []rawPostTokenBalance  `json:"postTokenBalances"`
}

type rawMessage struct {
	AccountKeys  []rawAccountKey  `json:"accountKeys"`
	Instructions []rawInstruction `json:"instructions"`
}

// rawAccountKey 兼容两种编码：纯 base58 字符串，或 jsonParsed 的 {"pubkey": ...} 对象
type rawAccountKey struct {
	Pubkey string
}

func (k *rawAccountKey) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &k.Pubkey)
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	k.Pubkey = obj.Pubkey
	return nil
}

type rawInstruction struct {
	ProgramIDIndex int    `json:"programIdIndex"`
	Accounts       []int  `json:"accounts"`
	Data           string `json:"data"` // base58
}

type rawInnerGroup struct {
	Index        int              `json:"index"`
	Instructions []rawInstruction `json:"instructions"`
}

type rawPostTokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		Amount string `json:"amount"`
	} `json:"uiTokenAmount"`
}

// FromRaw 将原始 JSON-RPC confirmed transaction 解析为 Transaction。
// meta.err 非空或必需字段（slot / blockTime / meta / transaction.message）缺失时
// 返回 ErrMalformedTransaction。
func FromRaw(raw []byte) (*Transaction, error) {
	var rt rawConfirmedTx
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTransaction, err)
	}
	if rt.Slot == nil || rt.BlockTime == nil || rt.Meta == nil ||
		rt.Transaction == nil || rt.Transaction.Message == nil {
		return nil, fmt.Errorf("%w: missing required field", ErrMalformedTransaction)
	}
	if len(rt.Meta.Err) > 0 && string(rt.Meta.Err) != "null" {
		return nil, fmt.Errorf("%w: on-chain execution failed", ErrMalformedTransaction)
	}
	if len(rt.Transaction.Signatures) == 0 {
		return nil, fmt.Errorf("%w: missing signature", ErrMalformedTransaction)
	}

	msg := rt.Transaction.Message
	keys := make([]string, 0, len(msg.AccountKeys))
	for _, k := range msg.AccountKeys {
		keys = append(keys, k.Pubkey)
	}

	tx := &Transaction{
		Slot:        *rt.Slot,
		BlockTime:   *rt.BlockTime,
		Fee:         rt.Meta.Fee,
		Signature:   rt.Transaction.Signatures[0],
		AccountKeys: keys,
	}

	for i, ri := range msg.Instructions {
		ix, err := buildInstruction(ri, keys, i)
		if err != nil {
			return nil, err
		}
		tx.Instructions = append(tx.Instructions, ix)
	}

	for _, rg := range rt.Meta.InnerInstructions {
		group := &InnerInstructionsGroup{OuterIndex: rg.Index}
		for _, ri := range rg.Instructions {
			ix, err := buildInstruction(ri, keys, -1)
			if err != nil {
				return nil, err
			}
			group.Instructions = append(group.Instructions, ix)
		}
		tx.InnerGroups = append(tx.InnerGroups, group)
	}

	for _, rb := range rt.Meta.PostTokenBalances {
		tx.PostTokenBalances = append(tx.PostTokenBalances, PostTokenBalance{
			AccountIndex: rb.AccountIndex,
			Mint:         rb.Mint,
			Owner:        rb.Owner,
			Amount:       rb.UITokenAmount.Amount,
		})
	}
	return tx, nil
}

// buildInstruction 将账户下标解析为地址并即时解码 base58 data
func buildInstruction(ri rawInstruction, keys []string, index int) (*Instruction, error) {
	if ri.ProgramIDIndex < 0 || ri.ProgramIDIndex >= len(keys) {
		return nil, fmt.Errorf("%w: program index %d out of range", ErrMalformedTransaction, ri.ProgramIDIndex)
	}
	accounts := make([]string, 0, len(ri.Accounts))
	for _, ai := range ri.Accounts {
		if ai < 0 || ai >= len(keys) {
			return nil, fmt.Errorf("%w: account index %d out of range", ErrMalformedTransaction, ai)
		}
		accounts = append(accounts, keys[ai])
	}
	data, err := base58.Decode(ri.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad instruction data: %v", ErrMalformedTransaction, err)
	}
	return &Instruction{
		Program:  keys[ri.ProgramIDIndex],
		Accounts: accounts,
		Data:     data,
		Index:    index,
	}, nil
}

// FindInstruction 返回第一条 program 匹配的主指令；offset >= 0 时额外要求
// 指令在 width 宽度下的 function offset 等于 offset。
// 无匹配返回 nil——调用方应视为"该交易与此解析器无关"，而非错误。
func (tx *Transaction) FindInstruction(program string, offset int64, width int) *Instruction {
	for _, ix := range tx.Instructions {
		if ix.Program != program {
			continue
		}
		if offset < 0 {
			return ix
		}
		fo, err := ix.FunctionOffset(width)
		if err != nil {
			continue
		}
		if fo == uint64(offset) {
			return ix
		}
	}
	return nil
}

// FindInnerInstructions 返回挂在指定主指令下的 inner 指令组；不存在返回 nil
func (tx *Transaction) FindInnerInstructions(ix *Instruction) *InnerInstructionsGroup {
	if ix == nil || ix.Index < 0 {
		return nil
	}
	for _, g := range tx.InnerGroups {
		if g.OuterIndex == ix.Index {
			return g
		}
	}
	return nil
}

// FindTokenAddressAndOwner 在 postTokenBalances 中查找 amount == "1" 的条目，
// 其账户（或 owner）与 tokenAccount 匹配时返回 (mint, owner)；tokenAccount 为空则
// 无条件取第一条。唯一性 token（amount=1）的持有权会随 sale/transfer 指令转移，
// 当 mint 不是指令参数时，这是恢复 mint 地址的唯一可靠途径。
func (tx *Transaction) FindTokenAddressAndOwner(tokenAccount string) (mint string, owner string, ok bool) {
	for _, b := range tx.PostTokenBalances {
		if b.Amount != "1" {
			continue
		}
		if tokenAccount == "" {
			return b.Mint, b.Owner, true
		}
		var account string
		if b.AccountIndex >= 0 && b.AccountIndex < len(tx.AccountKeys) {
			account = tx.AccountKeys[b.AccountIndex]
		}
		if account == tokenAccount || b.Owner == tokenAccount {
			return b.Mint, b.Owner, true
		}
	}
	return "", "", false
}
