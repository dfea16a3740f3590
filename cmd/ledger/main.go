package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-digital-market.git/internal/config"
	kafkax "github.com/ariefcatur/go-digital-market.git/internal/kafka"
	"github.com/ariefcatur/go-digital-market.git/internal/ledger"
	"github.com/ariefcatur/go-digital-market.git/internal/logx"
	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	lg, err := logx.New(cfg.ServiceName+"-ledger", cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &ledger.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-ledger",
		Log:         lg,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.LedgerGroup, orders.TopicOrderPaid, cfg.LedgerWorkers, lg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		lg.Info("ledger consumer started",
			zap.String("group", cfg.LedgerGroup),
			zap.String("topic", orders.TopicOrderPaid),
			zap.Int("workers", cfg.LedgerWorkers),
		)
		if err := cons.Start(ctx, svc.HandleOrderPaid); err != nil {
			lg.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	lg.Info("shutting down consumer")
	cancel()
	<-done
}
