package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/logic/core"
)

// KafkaJob 表示一条需要发送的 Kafka 消息
type KafkaJob struct {
	Topic     string
	Partition int32
	Value     []byte
}

// KafkaSendResult 表示每条消息的发送结果
type KafkaSendResult struct {
	Job *KafkaJob
	Err error
}

// BuildEventJobs 将已入库事件编码为下游消息。
// 同一 token 的事件按 TokenKey 哈希落到同一分区，保证下游按 token 有序消费。
func BuildEventJobs(cfg config.KafkaProducerConfig, events []*core.SecondaryMarketEvent) ([]*KafkaJob, error) {
	partitions := int32(cfg.Partitions.Events)
	jobs := make([]*KafkaJob, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal event %s: %w", e.TxHash, err)
		}
		jobs = append(jobs, &KafkaJob{
			Topic:     cfg.Topics.Events,
			Partition: hashPartition(e.TokenKey, partitions),
			Value:     value,
		})
	}
	return jobs, nil
}

// BuildFailedSigJobs 将摄取失败的签名编码为重投消息（每签名一条）
func BuildFailedSigJobs(cfg config.KafkaProducerConfig, sigs []string) []*KafkaJob {
	partitions := int32(cfg.Partitions.FailedSigs)
	jobs := make([]*KafkaJob, 0, len(sigs))
	for _, sig := range sigs {
		jobs = append(jobs, &KafkaJob{
			Topic:     cfg.Topics.FailedSigs,
			Partition: hashPartition(sig, partitions),
			Value:     []byte(sig),
		})
	}
	return jobs
}

func hashPartition(key string, partitions int32) int32 {
	if partitions <= 0 {
		return kafka.PartitionAny
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int32(h.Sum32() % uint32(partitions))
}

// ProducerSender 把 *kafka.Producer 适配成批量发送接口
type ProducerSender struct {
	Producer *kafka.Producer
	Timeout  time.Duration // 单条消息投递超时
}

func (s *ProducerSender) Send(ctx context.Context, jobs []*KafkaJob) (ok []*KafkaJob, failed []KafkaSendResult) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return SendKafkaJobs(ctx, s.Producer, jobs, timeout)
}

// SendKafkaJobs 并发发送多条 Kafka 消息，支持外部 context 控制超时/取消
func SendKafkaJobs(
	ctx context.Context,
	producer *kafka.Producer,
	jobs []*KafkaJob,
	perMessageTimeout time.Duration,
) (ok []*KafkaJob, failed []KafkaSendResult) {
	var wg sync.WaitGroup
	resultCh := make(chan KafkaSendResult, len(jobs)) // 缓冲避免阻塞

	for _, job := range jobs {
		wg.Add(1)
		go func(job *KafkaJob) {
			defer wg.Done()

			deliveryChan := make(chan kafka.Event, 1)
			err := producer.Produce(&kafka.Message{
				TopicPartition: kafka.TopicPartition{
					Topic:     &job.Topic,
					Partition: job.Partition,
				},
				Value: job.Value,
			}, deliveryChan)
			if err != nil {
				resultCh <- KafkaSendResult{Job: job, Err: fmt.Errorf("produce error: %w", err)}
				return
			}

			select {
			case e, ok := <-deliveryChan:
				if !ok {
					resultCh <- KafkaSendResult{Job: job, Err: fmt.Errorf("delivery channel closed unexpectedly")}
					return
				}
				msg, ok := e.(*kafka.Message)
				if !ok {
					resultCh <- KafkaSendResult{Job: job, Err: fmt.Errorf("invalid message type: %T", e)}
					return
				}
				if msg.TopicPartition.Error != nil {
					resultCh <- KafkaSendResult{Job: job, Err: msg.TopicPartition.Error}
				} else {
					resultCh <- KafkaSendResult{Job: job, Err: nil}
				}
			case <-time.After(perMessageTimeout):
				go safeDrain(deliveryChan)
				resultCh <- KafkaSendResult{Job: job, Err: fmt.Errorf("delivery timeout (>%v)", perMessageTimeout)}
			case <-ctx.Done():
				go safeDrain(deliveryChan)
				resultCh <- KafkaSendResult{Job: job, Err: fmt.Errorf("ctx cancelled: %w", ctx.Err())}
			}
		}(job)
	}

	// 等待所有发送完成再关闭结果通道
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for res := range resultCh {
		if res.Err != nil {
			failed = append(failed, res)
		} else {
			ok = append(ok, res.Job)
		}
	}

	return ok, failed
}

// safeDrain 确保 deliveryChan 被 drain，避免 Kafka 回调阻塞
func safeDrain(ch <-chan kafka.Event) {
	defer func() {
		_ = recover()
	}()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
	}
}
