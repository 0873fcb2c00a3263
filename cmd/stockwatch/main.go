package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kusina-ph/kusina-backend/internal/config"
	"github.com/kusina-ph/kusina-backend/internal/inventory"
	kafkax "github.com/kusina-ph/kusina-backend/internal/kafka"
	"github.com/kusina-ph/kusina-backend/internal/orders"
	"github.com/kusina-ph/kusina-backend/internal/postgres"
	"github.com/kusina-ph/kusina-backend/internal/redisx"
	"github.com/kusina-ph/kusina-backend/internal/stockwatch"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pLow := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicLowStock, 256)
	pLow.Start(ctx)

	w := &stockwatch.Watcher{
		Ledger:      inventory.NewLedger(db),
		Redis:       rdb,
		Producer:    pLow,
		ServiceName: cfg.ServiceName + "-stockwatch",
	}

	group := getenv("STOCKWATCH_GROUP", "stockwatch-svc")
	workers := mustAtoi(os.Getenv("STOCKWATCH_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers)

	go func() {
		log.Printf("stockwatch consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderCreated, workers)
		if err := cons.Start(ctx, w.HandleOrderCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pLow.Close()
	pLow.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
