package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SigStatus 表示签名在 Redis 中的摄取状态
type SigStatus int

const (
	SigUnknown   SigStatus = 0 // 未见过
	SigPending   SigStatus = 1 // 已被某个实例认领，处理中
	SigProcessed SigStatus = 2 // 已入库
	SigInvalid   SigStatus = 3 // 结构失败 / 无匹配解析器，跳过
)

const sigKeyPrefix = "progress:sig"

// 已处理签名的标记只为挡住短期重投，无需长期保留
const (
	pendingTTL   = 10 * time.Minute
	processedTTL = 3 * 24 * time.Hour
	invalidTTL   = 24 * time.Hour
)

// RedisSigStore 管理签名处理状态，供多实例间幂等判重。
// DynamoDB 条件写是最终兜底，这里只是减少重复拉取的前置快筛。
type RedisSigStore struct {
	rdb *redis.Client
}

func NewRedisSigStore(rdb *redis.Client) *RedisSigStore {
	return &RedisSigStore{rdb: rdb}
}

func sigKey(sig string) string {
	return fmt.Sprintf("%s:%s", sigKeyPrefix, sig)
}

// TryClaim 以 SETNX 认领签名；返回 false 表示已有实例在处理或已处理完
func (r *RedisSigStore) TryClaim(ctx context.Context, sig string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, sigKey(sig), int(SigPending), pendingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx error: %w", err)
	}
	return ok, nil
}

// GetStatus 查询签名状态；key 不存在返回 SigUnknown
func (r *RedisSigStore) GetStatus(ctx context.Context, sig string) (SigStatus, error) {
	val, err := r.rdb.Get(ctx, sigKey(sig)).Int()
	switch {
	case err == redis.Nil:
		return SigUnknown, nil
	case err != nil:
		return SigUnknown, fmt.Errorf("redis get error: %w", err)
	case val == int(SigPending):
		return SigPending, nil
	case val == int(SigProcessed):
		return SigProcessed, nil
	case val == int(SigInvalid):
		return SigInvalid, nil
	default:
		return SigUnknown, nil // 容错处理
	}
}

// MarkProcessed 标记签名已入库
func (r *RedisSigStore) MarkProcessed(ctx context.Context, sig string) error {
	return r.rdb.Set(ctx, sigKey(sig), int(SigProcessed), processedTTL).Err()
}

// MarkInvalid 标记签名无效（不会再重投）
func (r *RedisSigStore) MarkInvalid(ctx context.Context, sig string) error {
	return r.rdb.Set(ctx, sigKey(sig), int(SigInvalid), invalidTTL).Err()
}

// Release 释放认领（处理失败待重投时调用），让下一次重投可以重新认领
func (r *RedisSigStore) Release(ctx context.Context, sig string) error {
	return r.rdb.Del(ctx, sigKey(sig)).Err()
}
