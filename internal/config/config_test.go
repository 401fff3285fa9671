package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDefaults(t *testing.T) {
	var c IndexerConfig
	c.Normalize()

	assert.Equal(t, 5, c.DynamoConf.WindowMinutes)
	assert.Equal(t, 8, c.IngestConf.FetchConcurrency)
	assert.Equal(t, 3, c.IngestConf.RetryCount)
	assert.Equal(t, 2, c.IngestConf.RetryBackoffS)
	assert.Equal(t, 2, c.IngestConf.MetadataRetryCount)
	assert.Equal(t, 4096, c.IngestConf.DedupCacheSize)

	// 市场账户回填主网默认表
	assert.Equal(t, "MEisE1HzehtrDpAAT8PnLHjpSSkRYakotTuJRPjTpo8", c.Markets.MagicEden.V1Program)
	assert.Equal(t, "HZaWndaNWHFDd9Dhk5pqUUtsmoBCqzb1MLu3NAh1VX6B", c.Markets.AlphaArt.Program)
	assert.NotEmpty(t, c.Markets.ExchangeArt.Escrow)
}

func TestNormalizeKeepsOverrides(t *testing.T) {
	var c IndexerConfig
	c.DynamoConf.WindowMinutes = 15
	c.Markets.MagicEden.V1Program = "CustomProgram1111111111111111111111111111111"
	c.Normalize()

	assert.Equal(t, 15, c.DynamoConf.WindowMinutes)
	assert.Equal(t, "CustomProgram1111111111111111111111111111111", c.Markets.MagicEden.V1Program)
	// 未覆盖的字段仍回填默认
	assert.Equal(t, "M2mx93ekt1fmXSVkTrUL9xVFHkmME8HTUi5Cyc5aF7K", c.Markets.MagicEden.V2Program)
}
