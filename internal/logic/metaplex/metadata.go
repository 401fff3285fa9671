package metaplex

import (
	"encoding/binary"
	"errors"
	"strings"

	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/types"
)

// MetadataV1 账户判别字节（Metaplex Token Metadata 的 Key 枚举值）
const metadataV1Tag = 4

var (
	// ErrInvalidMetadataTag 表示首字节不是 MetadataV1 判别值
	ErrInvalidMetadataTag = errors.New("invalid metadata account tag")
	// ErrTruncatedMetadata 表示读取越过账户数据末尾
	ErrTruncatedMetadata = errors.New("truncated metadata account data")
)

// NFTMetadata 是链上元数据账户的解码结果。
// Creator 三个切片为平行数组；长度不一致时整体按空 creators 处理（定义的降级行为，
// 不作为错误抛出）。
type NFTMetadata struct {
	UpdateAuthority       string
	MintKey               string
	Name                  string
	Symbol                string
	URI                   string
	SellerFeeBasisPoints  int16
	CreatorAddresses      []string
	CreatorsVerified      []bool
	CreatorShares         []uint8
	PrimarySaleHappened   bool
	IsMutable             bool
}

// Creators 返回规整后的创作者列表；平行数组长度不一致时返回空
func (m *NFTMetadata) Creators() []core.Creator {
	n := len(m.CreatorAddresses)
	if n == 0 || len(m.CreatorsVerified) != n || len(m.CreatorShares) != n {
		return nil
	}
	out := make([]core.Creator, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, core.Creator{
			Address:  m.CreatorAddresses[i],
			Verified: m.CreatorsVerified[i],
			Share:    m.CreatorShares[i],
		})
	}
	return out
}

// metaReader 是顺序读取器；任何越界读取都转化为 ErrTruncatedMetadata
type metaReader struct {
	buf []byte
	pos int
}

func (r *metaReader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, ErrTruncatedMetadata
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *metaReader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *metaReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *metaReader) i16() (int16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

func (r *metaReader) pubkey() (string, error) {
	b, err := r.take(32)
	if err != nil {
		return "", err
	}
	p, err := types.PubkeyFromBytes(b)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// str 读取 u32 长度前缀字符串并剥离尾部 NUL 填充
func (r *metaReader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\x00"), nil
}

// DecodeMetadata 解码 Metaplex 元数据账户的原始字节（已完成 base58/base64 解码）。
// 纯函数，无任何 I/O。
func DecodeMetadata(data []byte) (*NFTMetadata, error) {
	r := &metaReader{buf: data}

	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	if tag != metadataV1Tag {
		return nil, ErrInvalidMetadataTag
	}

	m := &NFTMetadata{}
	if m.UpdateAuthority, err = r.pubkey(); err != nil {
		return nil, err
	}
	if m.MintKey, err = r.pubkey(); err != nil {
		return nil, err
	}
	if m.Name, err = r.str(); err != nil {
		return nil, err
	}
	if m.Symbol, err = r.str(); err != nil {
		return nil, err
	}
	if m.URI, err = r.str(); err != nil {
		return nil, err
	}
	if m.SellerFeeBasisPoints, err = r.i16(); err != nil {
		return nil, err
	}

	hasCreators, err := r.u8()
	if err != nil {
		return nil, err
	}
	if hasCreators != 0 {
		count, err := r.u32()
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < count; i++ {
			addr, err := r.pubkey()
			if err != nil {
				return nil, err
			}
			verified, err := r.u8()
			if err != nil {
				return nil, err
			}
			share, err := r.u8()
			if err != nil {
				return nil, err
			}
			m.CreatorAddresses = append(m.CreatorAddresses, addr)
			m.CreatorsVerified = append(m.CreatorsVerified, verified != 0)
			m.CreatorShares = append(m.CreatorShares, share)
		}
	}

	psh, err := r.u8()
	if err != nil {
		return nil, err
	}
	m.PrimarySaleHappened = psh != 0

	mutable, err := r.u8()
	if err != nil {
		return nil, err
	}
	m.IsMutable = mutable != 0

	return m, nil
}
