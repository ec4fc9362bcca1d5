package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sklep-tm/storefront/internal/cart"
	"github.com/sklep-tm/storefront/internal/catalog"
	"github.com/sklep-tm/storefront/internal/checkout"
	"github.com/sklep-tm/storefront/internal/config"
	"github.com/sklep-tm/storefront/internal/customer"
	"github.com/sklep-tm/storefront/internal/db"
	"github.com/sklep-tm/storefront/internal/notify"
	"github.com/sklep-tm/storefront/internal/order"
	"github.com/sklep-tm/storefront/internal/payments"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.RunMigrations(cfg.PostgresDSN); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	pool, err := db.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer pool.Close()

	catalogRepo := catalog.NewPGRepo(pool)
	customerRepo := customer.NewPGRepo(pool)
	orderRepo := order.NewPGRepo(pool)
	triggerRepo := notify.NewPGTriggerRepo(pool)

	provider := payments.NewStripeProvider(cfg.StripeAPIKey)
	pipeline := checkout.NewPipeline(customerRepo, orderRepo, provider, cfg.BaseURL)
	carts := cart.NewManager(cfg.CartDataDir, cart.NewPGMirror(pool))
	defer carts.Close()

	forwarder := notify.NewForwarder(cfg.AutomationWebhookURL, triggerRepo)
	emails := notify.NewEmailService(cfg.SendgridAPIKey, cfg.EmailFrom, provider)

	r := newRouter(routerDeps{
		jwtSecret: []byte(cfg.AuthJWTSecret),
		catalog:   catalogRepo,
		customers: customerRepo,
		orders:    orderRepo,
		carts:     carts,
		pipeline:  pipeline,
		provider:  provider,
		forwarder: forwarder,
		emails:    emails,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("storefront listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received")
	case err := <-errCh:
		log.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}
