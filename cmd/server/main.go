package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/api"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/auth"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/config"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/events"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/logger"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/metrics"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/presence"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/repository"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/service"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(cfg.Development)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	mc, err := repository.NewMongoClient(ctx, cfg.Mongo.URI)
	if err != nil {
		zlog.Fatalw("mongo init", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	db := mc.Database(cfg.Mongo.Database)

	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(mc, db)

	// presence lives in process memory unless a shared Redis is configured
	var pres presence.Store = presence.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pres = presence.NewRedisStore(rdb, cfg.Redis.Prefix)
		zlog.Infow("presence store", "backend", "redis", "addr", cfg.Redis.Addr)
	}

	var pub service.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic != "" {
		kp := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog)
		defer func() { _ = kp.Close() }()
		pub = kp
		zlog.Infow("event publisher", "topic", cfg.Kafka.Topic)
	}

	convSvc := service.NewConversationService(convRepo, msgRepo, zlog)
	msgSvc := service.NewMessageService(convRepo, msgRepo, pub, cfg.DeleteWindow, zlog)

	verifier, err := auth.NewVerifier(cfg.JWT.Alg, cfg.JWT.Secret, cfg.JWT.PublicKeyPath)
	if err != nil {
		zlog.Fatalw("jwt verifier", "err", err)
	}

	hub := ws.NewHub()
	gateway := ws.NewGateway(hub, pres, convSvc, msgSvc, verifier, zlog)

	server := api.NewServer(cfg, convSvc, msgSvc, gateway, verifier, zlog)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				zlog.Errorw("metrics listener", "err", err)
			}
		}()
	}

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	go func() {
		if err := server.App().Listen(addr); err != nil {
			zlog.Fatalw("server listen", "err", err)
		}
	}()
	zlog.Infow("messaging service started", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.App().ShutdownWithContext(shutdownCtx)
	zlog.Info("messaging service stopped")
}
