package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nft-indexer-sol/internal/logic/core"
)

// 链下 JSON 元数据大小上限，防御异常 URI
const maxOffchainBody = 1 << 20 // 1MB

// offchainMetadata 对应 metadata URI 指向的链下 JSON。
// 社区格式并不严格，数值/字符串混用的字段统一走 RawMessage 再规整。
type offchainMetadata struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	AnimationURL string          `json:"animation_url"`
	ExternalURL  string          `json:"external_url"`
	Edition      json.RawMessage `json:"edition"`
	Collection   json.RawMessage `json:"collection"`
	Attributes   []struct {
		TraitType string          `json:"trait_type"`
		Value     json.RawMessage `json:"value"`
	} `json:"attributes"`
	Properties struct {
		Files []struct {
			URI  string `json:"uri"`
			Type string `json:"type"`
		} `json:"files"`
	} `json:"properties"`
}

// scalarToString 把 JSON 标量（字符串 / 数字 / 布尔）规整为字符串
func scalarToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}

// collectionName 兼容两种写法："collection": "xx" 与 "collection": {"name": "xx"}
func collectionName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// fetchOffchainMetadata 拉取并解析链下 JSON；失败即返回错误，由调用方决定降级
func fetchOffchainMetadata(ctx context.Context, httpClient *http.Client, uri string) (*offchainMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata uri status %d", res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxOffchainBody))
	if err != nil {
		return nil, err
	}
	var meta offchainMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("bad metadata json: %w", err)
	}
	return &meta, nil
}

// applyOffchainMetadata 把链下字段并入 NftData。
// 主图约定放 MediaFiles 首位，其余文件按 properties.files 顺序追加。
func applyOffchainMetadata(n *core.NftData, meta *offchainMetadata) {
	n.Description = meta.Description
	n.ExternalURL = meta.ExternalURL
	n.CollectionName = collectionName(meta.Collection)
	n.Edition = scalarToString(meta.Edition)
	if n.Name == "" {
		n.Name = meta.Name
	}

	if len(meta.Attributes) > 0 {
		n.Attributes = make(map[string]string, len(meta.Attributes))
		for _, a := range meta.Attributes {
			if a.TraitType == "" {
				continue
			}
			n.Attributes[a.TraitType] = scalarToString(a.Value)
		}
	}

	if meta.Image != "" {
		n.MediaFiles = append(n.MediaFiles, core.MediaFile{URI: meta.Image, FileType: "image"})
	}
	if meta.AnimationURL != "" {
		n.MediaFiles = append(n.MediaFiles, core.MediaFile{URI: meta.AnimationURL, FileType: "animation"})
	}
	for _, f := range meta.Properties.Files {
		if f.URI == "" || f.URI == meta.Image || f.URI == meta.AnimationURL {
			continue
		}
		n.MediaFiles = append(n.MediaFiles, core.MediaFile{URI: f.URI, FileType: f.Type})
	}
}
