package metaplex

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 链上账户的 borsh 布局，仅测试用（构造序列化字节）
type onchainCreator struct {
	Address  [32]uint8
	Verified bool
	Share    uint8
}

type onchainMetadata struct {
	Key                  uint8
	UpdateAuthority      [32]uint8
	Mint                 [32]uint8
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints int16
	Creators             *[]onchainCreator
	PrimarySaleHappened  bool
	IsMutable            bool
}

func pk(t *testing.T, addr string) [32]uint8 {
	t.Helper()
	raw, err := base58.Decode(addr)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	var out [32]uint8
	copy(out[:], raw)
	return out
}

const (
	testAuthority = "GUfCR9mK6azb9vcpsxgXyj7XRPAKJd4KMHTTVvtncGgp"
	testMint      = "8ag4raw8snR6GbM6znQYv9k4845zs5NYrDZdoxnxaNwK"
	testCreator   = "BXxoKHT6CYtRTboZDaJee1ahrHoQSN6RJk3HAKpUWGHa"
)

func TestDecodeMetadata(t *testing.T) {
	creators := []onchainCreator{
		{Address: pk(t, testCreator), Verified: true, Share: 100},
	}
	// 链上字符串带固定长度的 NUL 填充，解码侧必须剥离
	src := onchainMetadata{
		Key:                  metadataV1Tag,
		UpdateAuthority:      pk(t, testAuthority),
		Mint:                 pk(t, testMint),
		Name:                 "DeGod #123\x00\x00\x00\x00",
		Symbol:               "DGOD\x00\x00",
		Uri:                  "https://metadata.example.com/123.json\x00\x00",
		SellerFeeBasisPoints: 500,
		Creators:             &creators,
		PrimarySaleHappened:  true,
		IsMutable:            true,
	}
	data, err := borsh.Serialize(src)
	require.NoError(t, err)

	m, err := DecodeMetadata(data)
	require.NoError(t, err)

	assert.Equal(t, testAuthority, m.UpdateAuthority)
	assert.Equal(t, testMint, m.MintKey)
	assert.Equal(t, "DeGod #123", m.Name)
	assert.Equal(t, "DGOD", m.Symbol)
	assert.Equal(t, "https://metadata.example.com/123.json", m.URI)
	assert.Equal(t, int16(500), m.SellerFeeBasisPoints)
	assert.True(t, m.PrimarySaleHappened)
	assert.True(t, m.IsMutable)

	cs := m.Creators()
	require.Len(t, cs, 1)
	assert.Equal(t, testCreator, cs[0].Address)
	assert.True(t, cs[0].Verified)
	assert.Equal(t, uint8(100), cs[0].Share)
}

func TestDecodeMetadataNoCreators(t *testing.T) {
	src := onchainMetadata{
		Key:             metadataV1Tag,
		UpdateAuthority: pk(t, testAuthority),
		Mint:            pk(t, testMint),
		Name:            "Solo",
		Symbol:          "S",
		Uri:             "https://example.com/s.json",
	}
	data, err := borsh.Serialize(src)
	require.NoError(t, err)

	m, err := DecodeMetadata(data)
	require.NoError(t, err)
	assert.Empty(t, m.CreatorAddresses)
	assert.Nil(t, m.Creators())
}

func TestDecodeMetadataInvalidTag(t *testing.T) {
	src := onchainMetadata{
		Key:             1, // 非 MetadataV1
		UpdateAuthority: pk(t, testAuthority),
		Mint:            pk(t, testMint),
	}
	data, err := borsh.Serialize(src)
	require.NoError(t, err)

	_, err = DecodeMetadata(data)
	assert.ErrorIs(t, err, ErrInvalidMetadataTag)
}

func TestDecodeMetadataTruncated(t *testing.T) {
	src := onchainMetadata{
		Key:             metadataV1Tag,
		UpdateAuthority: pk(t, testAuthority),
		Mint:            pk(t, testMint),
		Name:            "Truncated",
		Symbol:          "T",
		Uri:             "https://example.com/t.json",
	}
	data, err := borsh.Serialize(src)
	require.NoError(t, err)

	// 任意位置截断都不应 panic，统一返回 ErrTruncatedMetadata
	for _, cut := range []int{0, 1, 32, 65, 70, len(data) - 1} {
		_, err := DecodeMetadata(data[:cut])
		assert.ErrorIs(t, err, ErrTruncatedMetadata, "cut=%d", cut)
	}
}

func TestCreatorsLengthMismatch(t *testing.T) {
	// 平行数组不一致时整体按空 creators 降级，不报错
	m := &NFTMetadata{
		CreatorAddresses: []string{testCreator, testAuthority},
		CreatorsVerified: []bool{true},
		CreatorShares:    []uint8{100, 0},
	}
	assert.Nil(t, m.Creators())
}

func TestDeriveMetadataAccount(t *testing.T) {
	pda1, err := DeriveMetadataAccount(testMint)
	require.NoError(t, err)
	assert.NotEmpty(t, pda1)

	// 派生是确定性的
	pda2, err := DeriveMetadataAccount(testMint)
	require.NoError(t, err)
	assert.Equal(t, pda1, pda2)

	// 不同 mint 派生不同地址
	other, err := DeriveMetadataAccount(testCreator)
	require.NoError(t, err)
	assert.NotEqual(t, pda1, other)
}
