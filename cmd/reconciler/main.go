package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/stocklink/mo-reconcile/internal/config"
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
		log.Fatalf("db: %v", err)
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

	store := &postgres.Store{DB: db}
	svc := &worker.Service{
		Trigger: recon.NewTrigger(store, recon.Config{
			EnableAutoReplace:    cfg.EnableAutoReplace,
			LogReplacements:      cfg.LogReplacements,
			PlaceholderProductID: cfg.PlaceholderProductID,
		}),
		Redis: rdb,
		Pub: &worker.Publisher{
			Applied:     pApplied,
			Rejected:    pRejected,
			ServiceName: cfg.ServiceName + "-reconciler",
		},
	}

	// one consumer per business-event topic, same group
	subs := []struct {
		topic   string
		handler kafkax.Handler
	}{
		{recon.TopicOrderValidated, svc.HandleOrderValidated},
		{recon.TopicShipmentSubmitted, svc.HandleShipmentSubmitted},
		{recon.TopicShipmentLineUpserted, svc.HandleShipmentLineUpserted},
	}
	for _, sub := range subs {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ReconcilerGroup, sub.topic, cfg.ReconcilerWorkers)
		go func(topic string, c *kafkax.Consumer, h kafkax.Handler) {
			log.Printf("reconciler consumer started: group=%s topic=%s workers=%d", cfg.ReconcilerGroup, topic, cfg.ReconcilerWorkers)
			if err := c.Start(ctx, h); err != nil {
				log.Printf("consumer exit (%s): %v", topic, err)
				cancel()
			}
		}(sub.topic, cons, sub.handler)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumers...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pApplied.Close()
	pRejected.Close()
	pApplied.WaitClosed()
	pRejected.WaitClosed()
}
