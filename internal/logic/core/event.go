package core

import (
	"errors"
	"fmt"

	"nft-indexer-sol/internal/consts"
)

// EventType 表示二级市场事件类别
type EventType uint8

const (
	EventUnknown EventType = iota
	EventListing
	EventDelisting
	EventSale
	EventSaleAuction
	EventBid
	EventCancelBidding
	EventPriceUpdate
)

func (t EventType) String() string {
	switch t {
	case EventListing:
		return "listing"
	case EventDelisting:
		return "delisting"
	case EventSale:
		return "sale"
	case EventSaleAuction:
		return "sale_auction"
	case EventBid:
		return "bid"
	case EventCancelBidding:
		return "cancel_bidding"
	case EventPriceUpdate:
		return "price_update"
	default:
		return "unknown"
	}
}

// SecondaryMarketEvent 表示一笔已解析的二级市场事件。
// 解析成功后即不可变；同一 (blockchain_id, transaction_hash) 至多落库一次。
type SecondaryMarketEvent struct {
	BlockchainID uint32          // 链标识（consts.ChainIDSolana 等）
	MarketID     consts.MarketID // 市场标识
	Timestamp    int64           // 交易区块时间（Unix 秒）
	EventType    EventType
	TokenKey     string // NFT mint 地址
	Price        uint64 // 最小链上单位（lamports），整数，不做任何舍入
	Owner        string // listing / delisting / price_update 时非空
	Buyer        string // sale / sale_auction / bid / cancel_bidding 时非空
	TxHash       string // 交易签名
}

// ErrEventSchema 表示事件缺失存储必需的键字段（解析器 bug，按条目隔离，不中断批次）
var ErrEventSchema = errors.New("event missing required key field")

// Validate 校验存储必需字段。
// 约束：Owner / Buyer 必须恰好一个非空（两者皆空或皆非空均为解析器缺陷）。
func (e *SecondaryMarketEvent) Validate() error {
	if e.TxHash == "" || e.TokenKey == "" || e.Timestamp <= 0 {
		return fmt.Errorf("%w: tx=%q token=%q ts=%d", ErrEventSchema, e.TxHash, e.TokenKey, e.Timestamp)
	}
	if (e.Owner == "") == (e.Buyer == "") {
		return fmt.Errorf("%w: owner=%q buyer=%q tx=%s", ErrEventSchema, e.Owner, e.Buyer, e.TxHash)
	}
	return nil
}

// WindowKey 返回事件所属时间桶的起始秒（桶宽 widthMinutes 分钟），作为存储分区键。
func (e *SecondaryMarketEvent) WindowKey(widthMinutes int) string {
	return WindowKeyAt(e.Timestamp, widthMinutes)
}

// WindowKeyAt 计算任意时间戳所属时间桶的分区键
func WindowKeyAt(ts int64, widthMinutes int) string {
	width := int64(widthMinutes) * 60
	return fmt.Sprintf("%d", ts-ts%width)
}

// SortKey 返回 blockchain#timestamp#txhash 组合排序键。
// 时间戳与链 ID 定宽补零，保证字典序即时间序；同桶内可按该键做范围扫描。
func (e *SecondaryMarketEvent) SortKey() string {
	return SortKeyAt(e.BlockchainID, e.Timestamp, e.TxHash)
}

func SortKeyAt(blockchainID uint32, ts int64, txHash string) string {
	return fmt.Sprintf("%06d#%010d#%s", blockchainID, ts, txHash)
}

// TimeSortKey 返回 timestamp#blockchain#txhash 组合键，支持不区分链、纯按时间锚定的范围查询。
func (e *SecondaryMarketEvent) TimeSortKey() string {
	return fmt.Sprintf("%010d#%06d#%s", e.Timestamp, e.BlockchainID, e.TxHash)
}

// DedupKey 返回事件的去重标识（进程内 recency cache 使用）
func (e *SecondaryMarketEvent) DedupKey() string {
	return fmt.Sprintf("%d#%s", e.BlockchainID, e.TxHash)
}
