package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/sawomule/go-resto-pos.git/internal/config"
	kafkax "github.com/sawomule/go-resto-pos.git/internal/kafka"
	"github.com/sawomule/go-resto-pos.git/internal/orders"
	"github.com/sawomule/go-resto-pos.git/internal/redisx"
	"github.com/sawomule/go-resto-pos.git/internal/tracker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &tracker.Service{Redis: rdb, ServiceName: cfg.ServiceName}

	created := kafkax.NewConsumer(cfg.KafkaBrokers, "tracker", orders.TopicOrderCreated, 2)
	status := kafkax.NewConsumer(cfg.KafkaBrokers, "tracker", orders.TopicOrderStatus, 2)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return created.Start(gctx, svc.Handle) })
	g.Go(func() error { return status.Start(gctx, svc.Handle) })

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("shutting down...")
		cancel()
	}()

	if err := g.Wait(); err != nil {
		log.Fatalf("tracker: %v", err)
	}
}
