package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Creator 表示链上元数据中的创作者条目
type Creator struct {
	Address  string
	Verified bool
	Share    uint8
}

// MediaFile 表示 NFT 的一个媒体资源，第一项约定为主图
type MediaFile struct {
	URI      string
	FileType string
}

// NftData 是 NFT 的存储记录，由链上二进制元数据与链下 JSON 元数据拼装而成。
// 除 CurrentOwner 外的字段在首次写入后不可变（内容按 token key 寻址，后写为 no-op）；
// CurrentOwner 独立存储、独立版本化，随每次所有权变更覆盖写。
type NftData struct {
	BlockchainID        uint32
	TokenKey            string // NFT mint 地址
	CollectionKey       string // = 链上 update authority，作为集合标识
	CurrentOwner        string
	Name                string
	Description         string
	Symbol              string
	PrimarySaleHappened bool
	MetadataURI         string
	Creators            []Creator
	Attributes          map[string]string // trait 名 → 值
	ExternalURL         string
	MediaFiles          []MediaFile
	CollectionName      string // 链下元数据中的集合名，用于 quick-filter 索引
	Edition             string
}

var ErrNftSchema = errors.New("nft record missing required key field")

// Validate 校验存储必需字段
func (n *NftData) Validate() error {
	if n.TokenKey == "" {
		return fmt.Errorf("%w: empty token key", ErrNftSchema)
	}
	return nil
}

// QuickFilterKey 返回 quick-filter 索引记录的 (分区键, 排序键)。
// 分区键为集合名首字符（小写，非字母数字归入 "#"），排序键为小写集合名。
// 集合名为空时返回 ok=false，不产生索引记录。
func (n *NftData) QuickFilterKey() (letter string, name string, ok bool) {
	name = strings.ToLower(strings.TrimSpace(n.CollectionName))
	if name == "" {
		return "", "", false
	}
	r := rune(name[0])
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		letter = string(r)
	} else {
		letter = "#"
	}
	return letter, name, true
}
