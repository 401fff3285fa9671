package config

import (
	"nft-indexer-sol/internal/pkg/logger"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RpcConfig 表示 Solana JSON-RPC 节点配置
type RpcConfig struct {
	Endpoint  string `yaml:"endpoint"`   // RPC 节点地址
	TimeoutMs int    `yaml:"timeout_ms"` // 单次请求超时（毫秒）
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置
type KafkaProducerConfig struct {
	Brokers   string `yaml:"brokers"`    // Kafka broker 地址，多个用英文逗号分隔
	BatchSize int    `yaml:"batch_size"` // 批处理大小（单位字节）
	LingerMs  int    `yaml:"linger_ms"`  // 批处理最大延迟（毫秒）

	Topics struct {
		Events     string `yaml:"events"`      // 已解析事件的下游 topic
		FailedSigs string `yaml:"failed_sigs"` // 摄取失败签名的重投 topic
	} `yaml:"topics"`

	Partitions struct {
		Events     int `yaml:"events"`
		FailedSigs int `yaml:"failed_sigs"`
	} `yaml:"partitions"`
}

// KafkaConsumerConfig 表示签名来源 topic 的消费配置
type KafkaConsumerConfig struct {
	Brokers string `yaml:"brokers"`
	GroupID string `yaml:"group_id"`
	Topic   string `yaml:"topic"` // 待摄取签名的 topic
}

// DynamoConfig 表示事件 / NFT 存储表配置
type DynamoConfig struct {
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"` // 本地调试端点（localstack），留空走真实服务
	EventsTable   string `yaml:"events_table"`
	NftTable      string `yaml:"nft_table"`
	WindowMinutes int    `yaml:"window_minutes"` // 事件分区时间桶宽度（分钟），默认 5
}

// IngestConfig 表示摄取编排参数
type IngestConfig struct {
	FetchConcurrency   int `yaml:"fetch_concurrency"`    // 交易拉取并发上限
	RetryCount         int `yaml:"retry_count"`          // 整批未决子集的重试轮数
	RetryBackoffS      int `yaml:"retry_backoff_s"`      // 轮间固定等待（秒）
	MetadataRetryCount int `yaml:"metadata_retry_count"` // 链下 JSON 元数据请求次数上限
	DedupCacheSize     int `yaml:"dedup_cache_size"`     // 进程内去重缓存容量
	BatchTimeoutMs     int `yaml:"batch_timeout_ms"`     // 单批摄取总超时（毫秒）
}

// IndexerConfig 是摄取进程的主配置结构体
type IndexerConfig struct {
	LogConf           LogConfig           `yaml:"logger"`
	RpcConf           RpcConfig           `yaml:"rpc"`
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"`
	KafkaConsumerConf KafkaConsumerConfig `yaml:"kafka_consumer"`
	DynamoConf        DynamoConfig        `yaml:"dynamo"`
	IngestConf        IngestConfig        `yaml:"ingest"`

	RedisAddr string `yaml:"redis_addr"` // 跨进程签名幂等标记所用 Redis

	// Markets 为各市场的程序账户 / 授权账户表；留空字段回填内置默认值。
	// 这些地址是运营数据而非代码，解析器通过注册表注入，禁止在解析器内硬编码。
	Markets MarketsConfig `yaml:"markets"`
}

// Normalize 回填缺省值（桶宽、并发、市场账户默认表）
func (c *IndexerConfig) Normalize() {
	if c.DynamoConf.WindowMinutes <= 0 {
		c.DynamoConf.WindowMinutes = 5
	}
	if c.IngestConf.FetchConcurrency <= 0 {
		c.IngestConf.FetchConcurrency = 8
	}
	if c.IngestConf.RetryCount <= 0 {
		c.IngestConf.RetryCount = 3
	}
	if c.IngestConf.RetryBackoffS <= 0 {
		c.IngestConf.RetryBackoffS = 2
	}
	if c.IngestConf.MetadataRetryCount <= 0 {
		c.IngestConf.MetadataRetryCount = 2
	}
	if c.IngestConf.DedupCacheSize <= 0 {
		c.IngestConf.DedupCacheSize = 4096
	}
	c.Markets.fillDefaults()
}
