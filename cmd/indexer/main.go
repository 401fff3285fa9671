package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/zeromicro/go-zero/core/conf"
	zerosvc "github.com/zeromicro/go-zero/core/service"

	"nft-indexer-sol/internal/config"
	"nft-indexer-sol/internal/mq"
	"nft-indexer-sol/internal/pkg/logger"
	"nft-indexer-sol/internal/service"
	"nft-indexer-sol/internal/svc"
)

var configFile = flag.String("f", "etc/indexer.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.IndexerConfig
	conf.MustLoad(*configFile, &c)
	c.Normalize()

	logger.Init(c.LogConf.ToLogOption())
	defer logger.Sync()

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	// RedisSigStore 可能未配置，避免把 nil 指针塞进接口
	var sigMarker service.SigMarker
	if serviceContext.SigStore != nil {
		sigMarker = serviceContext.SigStore
	}

	ingest := service.NewIngestService(
		c.IngestConf,
		c.KafkaProducerConf,
		serviceContext.Chain,
		serviceContext.Registry,
		serviceContext.Store,
		sigMarker,
		serviceContext.Sender,
	)

	consumer, err := mq.NewSignatureConsumer(c.KafkaConsumerConf, ingest.ProcessSignatures)
	if err != nil {
		panic(err)
	}

	sg := zerosvc.NewServiceGroup()
	sg.Add(consumer)

	logger.Infof("Starting nft indexer, markets=%d", len(serviceContext.Registry.Programs()))

	sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infof("Shutting down services...")
	sg.Stop()
}
