package mq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/consts"
	"nft-indexer-sol/internal/logic/core"
)

func testKafkaConfig() config.KafkaProducerConfig {
	var cfg config.KafkaProducerConfig
	cfg.Topics.Events = "events_test"
	cfg.Topics.FailedSigs = "failed_test"
	cfg.Partitions.Events = 4
	cfg.Partitions.FailedSigs = 2
	return cfg
}

func TestBuildEventJobs(t *testing.T) {
	cfg := testKafkaConfig()
	events := []*core.SecondaryMarketEvent{
		{
			BlockchainID: consts.ChainIDSolana,
			MarketID:     consts.MarketMagicEden,
			Timestamp:    1640995200,
			EventType:    core.EventSale,
			TokenKey:     "8ag4raw8snR6GbM6znQYv9k4845zs5NYrDZdoxnxaNwK",
			Price:        10_000_000_000,
			Buyer:        "BXxoKHT6CYtRTboZDaJee1ahrHoQSN6RJk3HAKpUWGHa",
			TxHash:       "tx-1",
		},
		{
			BlockchainID: consts.ChainIDSolana,
			Timestamp:    1640995260,
			EventType:    core.EventListing,
			TokenKey:     "8ag4raw8snR6GbM6znQYv9k4845zs5NYrDZdoxnxaNwK",
			Owner:        "okkVSrkBXGfMHvEfKGUW73XmJYbP4ojPbWsBXbYjvZf",
			TxHash:       "tx-2",
		},
	}

	jobs, err := BuildEventJobs(cfg, events)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "events_test", jobs[0].Topic)
	// 同一 token 的事件落到同一分区，下游按 token 有序消费
	assert.Equal(t, jobs[0].Partition, jobs[1].Partition)
	assert.GreaterOrEqual(t, jobs[0].Partition, int32(0))
	assert.Less(t, jobs[0].Partition, int32(4))

	var decoded core.SecondaryMarketEvent
	require.NoError(t, json.Unmarshal(jobs[0].Value, &decoded))
	assert.Equal(t, uint64(10_000_000_000), decoded.Price)
	assert.Equal(t, "tx-1", decoded.TxHash)
}

func TestBuildFailedSigJobs(t *testing.T) {
	cfg := testKafkaConfig()
	jobs := BuildFailedSigJobs(cfg, []string{"sig-a", "sig-b"})
	require.Len(t, jobs, 2)
	assert.Equal(t, "failed_test", jobs[0].Topic)
	assert.Equal(t, []byte("sig-a"), jobs[0].Value)
	assert.Less(t, jobs[0].Partition, int32(2))
}

func TestHashPartitionStable(t *testing.T) {
	p1 := hashPartition("same-key", 8)
	p2 := hashPartition("same-key", 8)
	assert.Equal(t, p1, p2)

	// 分区数未配置时退回 PartitionAny
	assert.Equal(t, int32(-1), hashPartition("k", 0))
}
