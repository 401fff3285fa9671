package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"nft-indexer-sol/internal/logic/core"
	"nft-indexer-sol/internal/pkg/logger"
)

// NFT 表按单表多记录组织：
//
//	不可变记录:   pk = nft#<token>   sk = data   （条件写，至多一次）
//	当前持有者:   pk = nft#<token>   sk = owner  （覆盖写，跟进最新事件）
//	quick-filter: pk = qf#<首字符>   sk = <小写集合名>（条件写，每个集合名一条）
//
// 不可变部分与持有者分离，因为持有权的变更频率远高于元数据。
const (
	nftPkPrefix = "nft#"
	qfPkPrefix  = "qf#"
	skData      = "data"
	skOwner     = "owner"
)

type mediaFileItem struct {
	URI      string `dynamodbav:"uri"`
	FileType string `dynamodbav:"file_type"`
}

type creatorItem struct {
	Address  string `dynamodbav:"address"`
	Verified bool   `dynamodbav:"verified"`
	Share    uint8  `dynamodbav:"share"`
}

type nftItem struct {
	PK                  string            `dynamodbav:"pk"`
	SK                  string            `dynamodbav:"sk"`
	BlockchainID        uint32            `dynamodbav:"blockchain_id"`
	TokenKey            string            `dynamodbav:"token_key"`
	CollectionKey       string            `dynamodbav:"collection_key"`
	Name                string            `dynamodbav:"name"`
	Description         string            `dynamodbav:"description,omitempty"`
	Symbol              string            `dynamodbav:"symbol,omitempty"`
	PrimarySaleHappened bool              `dynamodbav:"primary_sale_happened"`
	MetadataURI         string            `dynamodbav:"metadata_uri,omitempty"`
	Creators            []creatorItem     `dynamodbav:"creators,omitempty"`
	Attributes          map[string]string `dynamodbav:"attributes,omitempty"`
	ExternalURL         string            `dynamodbav:"external_url,omitempty"`
	MediaFiles          []mediaFileItem   `dynamodbav:"media_files,omitempty"`
	CollectionName      string            `dynamodbav:"collection_name,omitempty"`
	Edition             string            `dynamodbav:"edition,omitempty"`
}

type ownerItem struct {
	PK           string `dynamodbav:"pk"`
	SK           string `dynamodbav:"sk"`
	TokenKey     string `dynamodbav:"token_key"`
	CurrentOwner string `dynamodbav:"current_owner"`
}

type quickFilterItem struct {
	PK   string `dynamodbav:"pk"`
	SK   string `dynamodbav:"sk"`
	Name string `dynamodbav:"collection_name"`
}

func newNftItem(n *core.NftData) *nftItem {
	it := &nftItem{
		PK:                  nftPkPrefix + n.TokenKey,
		SK:                  skData,
		BlockchainID:        n.BlockchainID,
		TokenKey:            n.TokenKey,
		CollectionKey:       n.CollectionKey,
		Name:                n.Name,
		Description:         n.Description,
		Symbol:              n.Symbol,
		PrimarySaleHappened: n.PrimarySaleHappened,
		MetadataURI:         n.MetadataURI,
		Attributes:          n.Attributes,
		ExternalURL:         n.ExternalURL,
		CollectionName:      n.CollectionName,
		Edition:             n.Edition,
	}
	for _, c := range n.Creators {
		it.Creators = append(it.Creators, creatorItem(c))
	}
	for _, f := range n.MediaFiles {
		it.MediaFiles = append(it.MediaFiles, mediaFileItem{URI: f.URI, FileType: f.FileType})
	}
	return it
}

func (it *nftItem) toNftData(owner string) *core.NftData {
	n := &core.NftData{
		BlockchainID:        it.BlockchainID,
		TokenKey:            it.TokenKey,
		CollectionKey:       it.CollectionKey,
		CurrentOwner:        owner,
		Name:                it.Name,
		Description:         it.Description,
		Symbol:              it.Symbol,
		PrimarySaleHappened: it.PrimarySaleHappened,
		MetadataURI:         it.MetadataURI,
		Attributes:          it.Attributes,
		ExternalURL:         it.ExternalURL,
		CollectionName:      it.CollectionName,
		Edition:             it.Edition,
	}
	for _, c := range it.Creators {
		n.Creators = append(n.Creators, core.Creator(c))
	}
	for _, f := range it.MediaFiles {
		n.MediaFiles = append(n.MediaFiles, core.MediaFile{URI: f.URI, FileType: f.FileType})
	}
	return n
}

// saveNft 写入一条 NFT：不可变记录条件写（重复为 no-op），
// current-owner 覆盖写，quick-filter 条件写。
func (s *Store) saveNft(ctx context.Context, n *core.NftData) error {
	if err := s.nfts.putConditional(ctx, newNftItem(n), "pk"); err != nil && !errors.Is(err, ErrConditionalWriteSkipped) {
		return fmt.Errorf("put nft record: %w", err)
	}

	if n.CurrentOwner != "" {
		owner := &ownerItem{
			PK:           nftPkPrefix + n.TokenKey,
			SK:           skOwner,
			TokenKey:     n.TokenKey,
			CurrentOwner: n.CurrentOwner,
		}
		if err := s.nfts.put(ctx, owner); err != nil {
			return fmt.Errorf("put nft owner: %w", err)
		}
	}

	if letter, name, ok := n.QuickFilterKey(); ok {
		qf := &quickFilterItem{PK: qfPkPrefix + letter, SK: name, Name: name}
		if err := s.nfts.putConditional(ctx, qf, "sk"); err != nil && !errors.Is(err, ErrConditionalWriteSkipped) {
			return fmt.Errorf("put quick filter: %w", err)
		}
	}
	return nil
}

// SaveNftRecords 批量写入 NFT 记录；schema 违例条目丢弃并记日志，
// 瞬态失败条目进入 failed 列表。
func (s *Store) SaveNftRecords(ctx context.Context, nfts []*core.NftData) (success int, failed []*core.NftData) {
	for _, n := range nfts {
		if err := n.Validate(); err != nil {
			logger.Errorf("[store::SaveNftRecords] schema 违例，条目丢弃: %v", err)
			continue
		}
		if err := s.saveNft(ctx, n); err != nil {
			logger.Warnf("[store::SaveNftRecords] 写入失败 token=%s: %v", n.TokenKey, err)
			failed = append(failed, n)
			continue
		}
		success++
	}
	return success, failed
}

// GetNft 读取 NFT 的不可变记录与当前持有者；未收录返回 (nil, "", nil)
func (s *Store) GetNft(ctx context.Context, tokenKey string) (*core.NftData, string, error) {
	pk := nftPkPrefix + tokenKey

	var data nftItem
	found, err := s.nfts.getItem(ctx, map[string]*dynamodb.AttributeValue{
		"pk": {S: aws.String(pk)},
		"sk": {S: aws.String(skData)},
	}, &data)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", nil
	}

	var owner ownerItem
	if _, err := s.nfts.getItem(ctx, map[string]*dynamodb.AttributeValue{
		"pk": {S: aws.String(pk)},
		"sk": {S: aws.String(skOwner)},
	}, &owner); err != nil {
		return nil, "", err
	}

	return data.toNftData(owner.CurrentOwner), owner.CurrentOwner, nil
}

// QueryCollectionsByPrefix 按首字符浏览集合名（quick-filter 索引的读路径）
func (s *Store) QueryCollectionsByPrefix(ctx context.Context, letter string) ([]string, error) {
	raw, err := s.nfts.queryRange(ctx, "", "pk", qfPkPrefix+letter, "sk", "", "", false)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		var it quickFilterItem
		if err := dynamodbattribute.UnmarshalMap(m, &it); err != nil {
			return nil, err
		}
		out = append(out, it.Name)
	}
	return out, nil
}
