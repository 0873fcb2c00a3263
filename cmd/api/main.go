package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kusina-ph/kusina-backend/internal/cart"
	"github.com/kusina-ph/kusina-backend/internal/catalog"
	"github.com/kusina-ph/kusina-backend/internal/config"
	"github.com/kusina-ph/kusina-backend/internal/httpx"
	"github.com/kusina-ph/kusina-backend/internal/inventory"
	kafkax "github.com/kusina-ph/kusina-backend/internal/kafka"
	"github.com/kusina-ph/kusina-backend/internal/orders"
	"github.com/kusina-ph/kusina-backend/internal/postgres"
	"github.com/kusina-ph/kusina-backend/internal/redisx"
	"github.com/kusina-ph/kusina-backend/internal/reservations"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentRecorded, 1024)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	pRestocked := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicRestocked, 256)
	producers := []*kafkax.Producer{pCreated, pCancelled, pPaid, pStatus, pRestocked}
	for _, p := range producers {
		p.Start(ctx)
	}

	// Domain wiring
	ledger := inventory.NewLedger(db)
	products := catalog.NewPGRepo(db)
	store := orders.NewPGStore(db, ledger)
	svc := orders.NewService(products, ledger, store)

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{
		Service:   svc,
		Redis:     rdb,
		Created:   pCreated,
		Cancelled: pCancelled,
		Paid:      pPaid,
		Status:    pStatus,
		Name:      cfg.ServiceName,
	}).Register(router)
	(&httpx.CatalogHandler{
		Repo:      products,
		Ledger:    ledger,
		Restocked: pRestocked,
		Name:      cfg.ServiceName,
	}).Register(router)
	(&httpx.CartHandler{
		Repo:    cart.NewPGRepo(db),
		Service: svc,
		Created: pCreated,
		Name:    cfg.ServiceName,
	}).Register(router)
	(&httpx.ReservationsHandler{
		Repo: reservations.NewPGRepo(db),
	}).Register(router)

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

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)

	for _, p := range producers {
		p.Close()
	}
	cancel()
	for _, p := range producers {
		p.WaitClosed()
	}
}
