package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/pkg/logger"
)

const (
	sigBatchMax    = 64                     // 单批签名数量上限
	sigBatchLinger = 500 * time.Millisecond // 凑批最大等待
	pollTimeoutMs  = 200
)

// SignatureHandler 处理一批待摄取签名；返回 error 仅用于记日志，
// 失败签名的重投由处理方自行负责，消费位点照常推进。
type SignatureHandler func(ctx context.Context, sigs []string) error

// SignatureConsumer 从签名 topic 拉取消息并按批回调。
// 每条消息的 value 即一个 base58 交易签名。
type SignatureConsumer struct {
	consumer *kafka.Consumer
	handler  SignatureHandler
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSignatureConsumer(cfg config.KafkaConsumerConfig, handler SignatureHandler) (*SignatureConsumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       cfg.Brokers,
		"group.id":                cfg.GroupID,
		"auto.offset.reset":       "earliest",
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 5000,
		"session.timeout.ms":      10000,
		"heartbeat.interval.ms":   3000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	if err := consumer.SubscribeTopics([]string{cfg.Topic}, nil); err != nil {
		_ = consumer.Close()
		return nil, fmt.Errorf("failed to subscribe %s: %w", cfg.Topic, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SignatureConsumer{consumer: consumer, handler: handler, ctx: ctx, cancel: cancel}, nil
}

// Start 实现 service.Service，阻塞消费直到 Stop
func (c *SignatureConsumer) Start() {
	c.Run(c.ctx)
}

// Stop 实现 service.Service
func (c *SignatureConsumer) Stop() {
	c.cancel()
	c.Close()
}

// Run 阻塞消费直到 ctx 取消。凑满 sigBatchMax 条或等满 sigBatchLinger 即回调一批。
func (c *SignatureConsumer) Run(ctx context.Context) {
	batch := make([]string, 0, sigBatchMax)
	deadline := time.Now().Add(sigBatchLinger)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.handler(ctx, batch); err != nil {
			logger.Errorf("[mq::SignatureConsumer] 批处理失败（%d 条）: %v", len(batch), err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		default:
		}

		ev := c.consumer.Poll(pollTimeoutMs)
		switch m := ev.(type) {
		case *kafka.Message:
			if sig := string(m.Value); sig != "" {
				batch = append(batch, sig)
			}
		case kafka.Error:
			logger.Warnf("[mq::SignatureConsumer] kafka error: %v", m)
		}

		if len(batch) >= sigBatchMax || (len(batch) > 0 && time.Now().After(deadline)) {
			flush()
			deadline = time.Now().Add(sigBatchLinger)
		} else if len(batch) == 0 {
			deadline = time.Now().Add(sigBatchLinger)
		}
	}
}

func (c *SignatureConsumer) Close() {
	if err := c.consumer.Close(); err != nil {
		logger.Warnf("[mq::SignatureConsumer] close: %v", err)
	}
}
