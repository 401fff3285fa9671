package svc

import (
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"

	"nft-indexer-sol/internal/cache"
	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/logic/marketparser"
	"nft-indexer-sol/internal/logic/progress"
	"nft-indexer-sol/internal/mq"
	"nft-indexer-sol/internal/pkg/logger"
	"nft-indexer-sol/internal/rpc"
	"nft-indexer-sol/internal/store"
)

// ServiceContext 持有摄取进程的共享资源
type ServiceContext struct {
	Config   config.IndexerConfig
	Chain    *rpc.Client
	Registry *marketparser.Registry
	Store    *store.Store
	Producer *kafka.Producer
	Sender   *mq.ProducerSender
	SigStore *progress.RedisSigStore
}

// NewServiceContext 初始化共享资源
func NewServiceContext(c config.IndexerConfig) (*ServiceContext, error) {
	// 1. Kafka 生产者（events / failed_sigs topic）
	producer, err := mq.NewKafkaProducer(c.KafkaProducerConf)
	if err != nil {
		logger.Errorf("Kafka producer 初始化失败: %v", err)
		return nil, err
	}

	// 2. DynamoDB 存储
	db, err := store.NewDynamoClient(c.DynamoConf)
	if err != nil {
		logger.Errorf("DynamoDB 客户端初始化失败: %v", err)
		return nil, err
	}
	dedup := cache.NewDedupCache(c.IngestConf.DedupCacheSize)
	st := store.New(db, c.DynamoConf, dedup)

	// 3. Redis 签名判重（可选，未配置时仅靠条件写兜底）
	var sigStore *progress.RedisSigStore
	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		sigStore = progress.NewRedisSigStore(rdb)
	}

	return &ServiceContext{
		Config:   c,
		Chain:    rpc.NewClient(c.RpcConf),
		Registry: marketparser.NewRegistry(c.Markets),
		Store:    st,
		Producer: producer,
		Sender:   &mq.ProducerSender{Producer: producer, Timeout: 10 * time.Second},
		SigStore: sigStore,
	}, nil
}

// Close 释放资源
func (s *ServiceContext) Close() {
	if s.Producer != nil {
		s.Producer.Close()
	}
}
