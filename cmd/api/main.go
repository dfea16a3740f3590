package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/admin"
	"github.com/ariefcatur/go-digital-market.git/internal/catalog"
	"github.com/ariefcatur/go-digital-market.git/internal/config"
	"github.com/ariefcatur/go-digital-market.git/internal/fulfillment"
	"github.com/ariefcatur/go-digital-market.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-digital-market.git/internal/kafka"
	"github.com/ariefcatur/go-digital-market.git/internal/ledger"
	"github.com/ariefcatur/go-digital-market.git/internal/logx"
	"github.com/ariefcatur/go-digital-market.git/internal/objectstore"
	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	"github.com/ariefcatur/go-digital-market.git/internal/payments"
	"github.com/ariefcatur/go-digital-market.git/internal/postgres"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/ariefcatur/go-digital-market.git/internal/users"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	lg, err := logx.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	if err := cfg.Validate(); err != nil {
		lg.Fatal("config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		lg.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			lg.Fatal("migrate", zap.Error(err))
		}
		lg.Info("schema migrated")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (topic per message)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, lg)
	prod.Start(ctx)

	// S3 signer
	signer, err := objectstore.New(ctx, objectstore.Options{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		lg.Fatal("s3", zap.Error(err))
	}

	// Repos & services
	orderRepo := &orders.Repo{DB: db}
	assetRepo := &catalog.Repo{DB: db}
	userRepo := &users.Repo{DB: db}
	stripe := payments.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	orderSvc := &orders.Service{Store: orderRepo, Redis: rdb, Publisher: prod, ServiceName: cfg.ServiceName, Log: lg.Named("orders")}
	catalogSvc := &catalog.Service{Store: assetRepo, Users: userRepo, Log: lg.Named("catalog")}
	userSvc := &users.Service{Store: userRepo, Verifier: users.TokenVerifier{Secret: []byte(cfg.JWTSecret)}, Log: lg.Named("users")}
	bridge := &payments.Bridge{
		Orders:      orderRepo,
		Processor:   stripe,
		Currency:    cfg.Currency,
		FrontendURL: cfg.FrontendURL,
		Log:         lg.Named("checkout"),
	}
	webhook := &payments.WebhookHandler{
		Processor:   stripe,
		Orders:      orderRepo,
		Redis:       rdb,
		Publisher:   prod,
		ServiceName: cfg.ServiceName,
		Log:         lg.Named("webhook"),
	}
	downloads := &fulfillment.Service{
		Entitlements: orderRepo,
		Assets:       assetRepo,
		Signer:       signer,
		Bucket:       cfg.S3Bucket,
		TTL:          cfg.DownloadTTL,
		Redis:        rdb,
		Log:          lg.Named("fulfillment"),
	}
	earnings := &ledger.Service{Redis: rdb, ServiceName: cfg.ServiceName, Log: lg.Named("ledger")}

	// Router & handlers
	router := httpx.NewRouter(lg.Named("http"))
	(&httpx.OrdersHandler{Orders: orderSvc, Log: lg}).Register(router)
	(&httpx.PaymentsHandler{Checkout: bridge, Webhook: webhook, Log: lg}).Register(router)
	(&httpx.AssetsHandler{
		Catalog:   catalogSvc,
		Downloads: downloads,
		Limiter:   httpx.NewBuyerRateLimiter(cfg.DownloadRPS, 5),
		Log:       lg,
	}).Register(router)
	(&httpx.UsersHandler{Users: userSvc, Ledger: earnings, Log: lg}).Register(router)
	(&httpx.AdminHandler{Auth: userSvc, Catalog: catalogSvc, Users: userSvc, Stats: &admin.Repo{DB: db}, Log: lg}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		lg.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	lg.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	cancel()          // stop producer loop
	prod.WaitClosed() // drain
}
