package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annvahak/marketplace/internal/auth"
	"github.com/annvahak/marketplace/internal/config"
	"github.com/annvahak/marketplace/internal/httpx"
	kafkax "github.com/annvahak/marketplace/internal/kafka"
	"github.com/annvahak/marketplace/internal/orders"
	"github.com/annvahak/marketplace/internal/postgres"
	"github.com/annvahak/marketplace/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// schema first, then the pool
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicItemStatus, 1024)
	pStatus.Start(ctx)

	// Core service & handler
	svc := orders.NewService(orders.NewPGStore(db))
	jwtSvc := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Service:        svc,
		PlacedProducer: pPlaced,
		StatusProducer: pStatus,
		Redis:          rdb,
		ServiceName:    cfg.ServiceName,
	}
	oh.Register(router, jwtSvc)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pPlaced.Close()
	pStatus.Close()
	cancel()
	pPlaced.WaitClosed()
	pStatus.WaitClosed()
}
