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

	"github.com/stocklink/mo-reconcile/internal/config"
	"github.com/stocklink/mo-reconcile/internal/httpx"
	kafkax "github.com/stocklink/mo-reconcile/internal/kafka"
	"github.com/stocklink/mo-reconcile/internal/postgres"
	"github.com/stocklink/mo-reconcile/internal/recon"
	"github.com/stocklink/mo-reconcile/internal/redisx"
	"github.com/stocklink/mo-reconcile/internal/worker"
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

	// Result producers
	pApplied := kafkax.NewProducer(cfg.KafkaBrokers, recon.TopicReconApplied, 1024)
	pApplied.Start(ctx)
	pRejected := kafkax.NewProducer(cfg.KafkaBrokers, recon.TopicReconRejected, 1024)
	pRejected.Start(ctx)
	pub := &worker.Publisher{Applied: pApplied, Rejected: pRejected, ServiceName: cfg.ServiceName}

	// Trigger & handler
	store := &postgres.Store{DB: db}
	trig := recon.NewTrigger(store, recon.Config{
		EnableAutoReplace:    cfg.EnableAutoReplace,
		LogReplacements:      cfg.LogReplacements,
		PlaceholderProductID: cfg.PlaceholderProductID,
	})
	router := httpx.NewRouter()
	rh := &httpx.ReconHandler{
		Store:                store,
		Trigger:              trig,
		Redis:                rdb,
		Pub:                  pub,
		PlaceholderProductID: cfg.PlaceholderProductID,
	}
	rh.Register(router)

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
	pApplied.Close()
	pRejected.Close()
	cancel()
	pApplied.WaitClosed()
	pRejected.WaitClosed()
}
