package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/blocto/solana-go-sdk/client"

	"nft-indexer-sol/internal/config"
)

// ErrTransactionNotFound 表示节点侧查不到该签名（尚未确认或已被裁剪）。
// 调用方据此决定重试还是标记失败，不与解析错误混淆。
var ErrTransactionNotFound = errors.New("transaction not found")

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
	ID      uint64 `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Client 封装 Solana JSON-RPC 访问。
// getTransaction 走裸 HTTP（需要 encoding=json 的原始报文），
// 账户读取复用 sdk client。
type Client struct {
	endpoint string
	http     *http.Client
	sdk      *client.Client
	reqID    atomic.Uint64
}

func NewClient(cfg config.RpcConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: timeout},
		sdk:      client.NewClient(cfg.Endpoint),
	}
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	body, err := json.Marshal(&rpcRequest{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.reqID.Add(1),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", method, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: read body: %w", method, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc %s: status %d: %s", method, res.StatusCode, resBody)
	}

	var resp rpcResponse
	if err := json.Unmarshal(resBody, &resp); err != nil {
		return nil, fmt.Errorf("rpc %s: unmarshal: %w", method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("rpc %s: node error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// GetConfirmedTransaction 按签名拉取原始 confirmed transaction JSON，
// 供 txmodel.FromRaw 消费。result 为 null 时返回 ErrTransactionNotFound。
func (c *Client) GetConfirmedTransaction(ctx context.Context, signature string) ([]byte, error) {
	result, err := c.call(ctx, "getTransaction", []any{
		signature,
		map[string]any{
			"encoding":                       "json",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, ErrTransactionNotFound
	}
	return result, nil
}

// GetAccountData 读取账户的原始 data 字节（metadata PDA 解码用）
func (c *Client) GetAccountData(ctx context.Context, address string) ([]byte, error) {
	info, err := c.sdk.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get account info %s: %w", address, err)
	}
	if len(info.Data) == 0 {
		return nil, fmt.Errorf("account %s: empty data", address)
	}
	return info.Data, nil
}
