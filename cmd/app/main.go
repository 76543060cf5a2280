package main

import (
	"flag"
	"log"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/auth"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/config"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/infra/mq"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/infra/redis"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/logger"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/middleware"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/remote"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/repository/sqlite"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/server"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/service"

	radix "github.com/mediocregopher/radix/v3"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := sqlite.Open(&cfg.SQLite)
	if err != nil {
		zlog.Fatal("open local store", zap.Error(err))
	}

	categoryRepo := sqlite.NewCategoryRepository(db)
	productRepo := sqlite.NewProductRepository(db)
	orderRepo := sqlite.NewOrderRepository(db)

	tokens := auth.NewTokenProvider()
	if cfg.Remote.Token != "" {
		tokens.Set(cfg.Remote.Token)
	}
	remoteClient := remote.NewClient(&cfg.Remote, tokens, zlog)

	// Redis and RabbitMQ are optional; the client degrades without them.
	var redisClient radix.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.New(&cfg.Redis)
		if err != nil {
			zlog.Warn("redis unavailable, sync locks disabled", zap.Error(err))
			redisClient = nil
		}
	}

	var events *mq.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := mq.Dial(&cfg.RabbitMQ)
		if err != nil {
			zlog.Warn("rabbitmq unavailable, order-queued events disabled", zap.Error(err))
		} else {
			defer conn.Close()
			events = mq.NewPublisher(conn)
		}
	}

	monitor := service.NewMonitor()
	catalogSvc := service.NewCatalogService(
		remoteClient, categoryRepo, productRepo,
		cfg.Catalog.RefreshInterval(), monitor, zlog,
	)
	orderSvc := service.NewOrderService(
		remoteClient, orderRepo, redisClient, events, monitor, zlog,
	)

	app := iris.New()
	app.UseRouter(middleware.RateLimit(middleware.NewTokenBucket(100, 50)))

	api := server.New(catalogSvc, orderSvc, tokens, monitor, zlog)
	api.Register(app)

	addr := cfg.Server.Addr()
	zlog.Info("client api listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zlog.Fatal("run client api", zap.Error(err))
	}
}
