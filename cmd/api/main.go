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

	"github.com/sawomule/go-resto-pos.git/internal/config"
	"github.com/sawomule/go-resto-pos.git/internal/httpx"
	kafkax "github.com/sawomule/go-resto-pos.git/internal/kafka"
	"github.com/sawomule/go-resto-pos.git/internal/orders"
	"github.com/sawomule/go-resto-pos.git/internal/payments"
	"github.com/sawomule/go-resto-pos.git/internal/postgres"
	"github.com/sawomule/go-resto-pos.git/internal/printer"
	"github.com/sawomule/go-resto-pos.git/internal/redisx"
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

	// Kafka producers
	createdProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	createdProd.Start(ctx)
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024)
	statusProd.Start(ctx)
	settledProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentSettled, 1024)
	settledProd.Start(ctx)

	// Repos
	orderRepo := &orders.Repo{DB: db}
	paymentRepo := payments.NewRepo(db)

	// Printer registry: cashier + per-kitchen, refreshed hourly
	dispatcher := printer.NewDispatcher(cfg.CashierPrinterIP, cfg.PrinterTimeout, orderRepo)
	if err := dispatcher.Refresh(ctx); err != nil {
		log.Printf("initial printer refresh: %v", err)
	}
	go dispatcher.RunRefresh(ctx, cfg.PrinterRefresh)

	// Services & handlers
	orderSvc := &orders.Service{
		Store:           orderRepo,
		Printer:         dispatcher,
		CreatedProducer: createdProd,
		StatusProducer:  statusProd,
		ServiceName:     cfg.ServiceName,
	}
	paymentSvc := &payments.Service{
		Store:       paymentRepo,
		Printer:     dispatcher,
		Producer:    settledProd,
		ServiceName: cfg.ServiceName,
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Service: orderSvc, Redis: rdb}
	oh.Register(router)
	ph := &httpx.PaymentsHandler{Service: paymentSvc}
	ph.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{createdProd, statusProd, settledProd} {
		p.Close() // tutup inbox -> flush & close writer
	}
	cancel() // stop producer loops & printer refresh
	for _, p := range []*kafkax.Producer{createdProd, statusProd, settledProd} {
		p.WaitClosed() // drain
	}
}
