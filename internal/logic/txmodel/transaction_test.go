package txmodel

import (
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-indexer-sol/internal/consts"
)

const (
	keyWallet  = "okkVSrkBXGfMHvEfKGUW73XmJYbP4ojPbWsBXbYjvZf"
	keyToken   = "2Pw69uefPXeqD2PvLjDMD3CohKWFixKVwkf5yJSzAu5K"
	keyProgram = "MEisE1HzehtrDpAAT8PnLHjpSSkRYakotTuJRPjTpo8"
	testSig    = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"
)

func rawTxJSON(metaErr string, blockTime string) []byte {
	data := base58.Encode(append([]byte{0x02}, leU64(1000)...))
	return []byte(`{
		"slot": 123456789,
		"blockTime": ` + blockTime + `,
		"meta": {
			"err": ` + metaErr + `,
			"fee": 5000,
			"innerInstructions": [
				{"index": 0, "instructions": [
					{"programIdIndex": 2, "accounts": [0, 1], "data": "` + data + `"}
				]}
			],
			"postTokenBalances": [
				{"accountIndex": 1, "mint": "` + keyToken + `", "owner": "` + keyWallet + `",
				 "uiTokenAmount": {"amount": "1"}}
			]
		},
		"transaction": {
			"signatures": ["` + testSig + `"],
			"message": {
				"accountKeys": ["` + keyWallet + `", {"pubkey": "` + keyToken + `"}, "` + keyProgram + `"],
				"instructions": [
					{"programIdIndex": 2, "accounts": [0, 1], "data": "` + data + `"}
				]
			}
		}
	}`)
}

func leU64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func TestFromRaw(t *testing.T) {
	tx, err := FromRaw(rawTxJSON("null", "1640000000"))
	require.NoError(t, err)

	assert.Equal(t, uint64(123456789), tx.Slot)
	assert.Equal(t, int64(1640000000), tx.BlockTime)
	assert.Equal(t, uint64(5000), tx.Fee)
	assert.Equal(t, testSig, tx.Signature)
	// accountKeys 兼容字符串与 jsonParsed 对象两种编码
	assert.Equal(t, []string{keyWallet, keyToken, keyProgram}, tx.AccountKeys)

	require.Len(t, tx.Instructions, 1)
	ix := tx.Instructions[0]
	assert.Equal(t, keyProgram, ix.Program)
	assert.Equal(t, []string{keyWallet, keyToken}, ix.Accounts)
	assert.Equal(t, 0, ix.Index)
	// data 在构造阶段已完成 base58 解码
	assert.Equal(t, append([]byte{0x02}, leU64(1000)...), ix.Data)

	require.Len(t, tx.InnerGroups, 1)
	assert.Equal(t, 0, tx.InnerGroups[0].OuterIndex)
	assert.Equal(t, -1, tx.InnerGroups[0].Instructions[0].Index)

	require.Len(t, tx.PostTokenBalances, 1)
	assert.Equal(t, "1", tx.PostTokenBalances[0].Amount)
}

func TestFromRawRejectsFailedTx(t *testing.T) {
	// 链上执行失败的交易不携带任何市场状态变更
	_, err := FromRaw(rawTxJSON(`{"InstructionError": [0, "Custom"]}`, "1640000000"))
	assert.ErrorIs(t, err, ErrMalformedTransaction)
}

func TestFromRawMissingFields(t *testing.T) {
	cases := map[string][]byte{
		"not json":      []byte("not-json"),
		"empty object":  []byte(`{}`),
		"missing time":  rawTxJSON("null", "null"),
		"no signatures": []byte(`{"slot": 1, "blockTime": 1, "meta": {"err": null}, "transaction": {"signatures": [], "message": {"accountKeys": [], "instructions": []}}}`),
	}
	for name, raw := range cases {
		_, err := FromRaw(raw)
		assert.ErrorIs(t, err, ErrMalformedTransaction, name)
	}
}

func TestFromRawAccountIndexOutOfRange(t *testing.T) {
	raw := []byte(`{
		"slot": 1, "blockTime": 1,
		"meta": {"err": null, "fee": 0, "innerInstructions": [], "postTokenBalances": []},
		"transaction": {
			"signatures": ["` + testSig + `"],
			"message": {
				"accountKeys": ["` + keyWallet + `"],
				"instructions": [{"programIdIndex": 0, "accounts": [7], "data": ""}]
			}
		}
	}`)
	_, err := FromRaw(raw)
	assert.ErrorIs(t, err, ErrMalformedTransaction)
}

func TestFunctionOffsetWidths(t *testing.T) {
	// System Program 固定 4 字节小端
	sys := &Instruction{Program: consts.SystemProgramStr, Data: []byte{2, 0, 0, 0, 0xFF}}
	fo, err := sys.FunctionOffset(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fo)

	// Token Program 固定 1 字节
	tok := &Instruction{Program: consts.TokenProgramStr, Data: []byte{6, 1}}
	fo, err = tok.FunctionOffset(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), fo)

	// 市场合约按调用方宽度
	mk := &Instruction{Program: keyProgram, Data: leU64(0x4c6f2b543a84eb4d)}
	fo, err = mk.FunctionOffset(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4c6f2b543a84eb4d), fo)

	// 数据不足按解码失败处理
	short := &Instruction{Program: keyProgram, Data: []byte{1, 2}}
	_, err = short.FunctionOffset(8)
	assert.ErrorIs(t, err, ErrDataOutOfRange)
}

func TestInstructionAccessors(t *testing.T) {
	ix := &Instruction{
		Program:  keyProgram,
		Accounts: []string{keyWallet, keyToken},
		Data:     append([]byte{9, 9, 9}, leU64(38000000000)...),
	}

	v, err := ix.GetInt(3, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(38000000000), v)

	_, err = ix.GetInt(8, 8)
	assert.ErrorIs(t, err, ErrDataOutOfRange)

	s, err := ix.GetStr(0, 3, false)
	require.NoError(t, err)
	assert.Equal(t, "\x09\x09\x09", s)

	assert.Equal(t, keyWallet, ix.Account(0))
	assert.Equal(t, "", ix.Account(5)) // 越界返回空串，不 panic
}

func TestFindInstruction(t *testing.T) {
	tx, err := FromRaw(rawTxJSON("null", "1640000000"))
	require.NoError(t, err)

	assert.NotNil(t, tx.FindInstruction(keyProgram, 2, 1))
	assert.NotNil(t, tx.FindInstruction(keyProgram, -1, 1)) // offset < 0 表示任意
	assert.Nil(t, tx.FindInstruction(keyProgram, 3, 1))
	assert.Nil(t, tx.FindInstruction(keyWallet, -1, 1))
}

func TestFindInnerInstructions(t *testing.T) {
	tx, err := FromRaw(rawTxJSON("null", "1640000000"))
	require.NoError(t, err)

	group := tx.FindInnerInstructions(tx.Instructions[0])
	require.NotNil(t, group)
	assert.Len(t, group.Instructions, 1)

	// inner 指令自身不能再挂 inner 组
	assert.Nil(t, tx.FindInnerInstructions(group.Instructions[0]))
	assert.Nil(t, tx.FindInnerInstructions(nil))
}

func TestFindTokenAddressAndOwner(t *testing.T) {
	tx := &Transaction{
		AccountKeys: []string{keyWallet, keyToken},
		PostTokenBalances: []PostTokenBalance{
			{AccountIndex: 0, Mint: "mintA", Owner: "ownerA", Amount: "250"},
			{AccountIndex: 1, Mint: "mintB", Owner: "ownerB", Amount: "1"},
		},
	}

	// 按 token account 地址匹配，仅限 amount == "1" 的条目
	mint, owner, ok := tx.FindTokenAddressAndOwner(keyToken)
	require.True(t, ok)
	assert.Equal(t, "mintB", mint)
	assert.Equal(t, "ownerB", owner)

	// 按 owner 匹配
	mint, _, ok = tx.FindTokenAddressAndOwner("ownerB")
	require.True(t, ok)
	assert.Equal(t, "mintB", mint)

	// 空入参取第一条 amount == "1"
	mint, _, ok = tx.FindTokenAddressAndOwner("")
	require.True(t, ok)
	assert.Equal(t, "mintB", mint)

	// amount != "1" 的条目永不匹配
	_, _, ok = tx.FindTokenAddressAndOwner(keyWallet)
	assert.False(t, ok)
}
