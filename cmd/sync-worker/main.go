package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/auth"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/config"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/infra/mq"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/infra/redis"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/logger"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/remote"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/repository/sqlite"
	"github.com/SoufianeAbk/CrunchyRolls-sub000/internal/service"

	amqp "github.com/rabbitmq/amqp091-go"
	radix "github.com/mediocregopher/radix/v3"
)

// The worker drains the write-behind order queue: it reconciles on every
// order-queued event and on a periodic schedule, so orders queued while
// the broker itself was down still get uploaded.
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
	orderRepo := sqlite.NewOrderRepository(db)

	tokens := auth.NewTokenProvider()
	if cfg.Remote.Token != "" {
		tokens.Set(cfg.Remote.Token)
	}
	remoteClient := remote.NewClient(&cfg.Remote, tokens, zlog)

	var redisClient radix.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = redis.New(&cfg.Redis)
		if err != nil {
			zlog.Warn("redis unavailable, sync locks disabled", zap.Error(err))
			redisClient = nil
		}
	}

	orderSvc := service.NewOrderService(
		remoteClient, orderRepo, redisClient, nil, service.NewMonitor(), zlog,
	)

	var msgs <-chan amqp.Delivery
	if cfg.RabbitMQ.URL != "" {
		conn, err := mq.Dial(&cfg.RabbitMQ)
		if err != nil {
			zlog.Warn("rabbitmq unavailable, running on schedule only", zap.Error(err))
		} else {
			defer conn.Close()
			ch, deliveries, err := mq.Consume(conn)
			if err != nil {
				zlog.Warn("consume sync queue", zap.Error(err))
			} else {
				defer ch.Close()
				msgs = deliveries
			}
		}
	}

	ticker := time.NewTicker(cfg.Sync.Interval())
	defer ticker.Stop()

	zlog.Info("sync worker started",
		zap.Duration("interval", cfg.Sync.Interval()),
		zap.Bool("event_driven", msgs != nil))

	ctx := context.Background()
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				// Broker went away; keep the schedule.
				msgs = nil
				continue
			}
			var m mq.OrderQueuedMessage
			if err := json.Unmarshal(d.Body, &m); err != nil {
				zlog.Warn("invalid sync message", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			runSync(ctx, orderSvc, zlog)
			_ = d.Ack(false)
		case <-ticker.C:
			runSync(ctx, orderSvc, zlog)
		}
	}
}

func runSync(ctx context.Context, orders *service.OrderService, zlog *zap.Logger) {
	synced, err := orders.SyncPendingOrders(ctx)
	if err != nil {
		// Only a 401 comes back here; nothing to do until the credential
		// is rotated.
		zlog.Error("sync aborted", zap.Error(err))
		return
	}
	if synced > 0 {
		zlog.Info("pending orders uploaded", zap.Int("count", synced))
	}
}
