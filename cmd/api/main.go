package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/olashile-studio/gallery-backend/api/routes"
	"github.com/olashile-studio/gallery-backend/internal/cart"
	"github.com/olashile-studio/gallery-backend/internal/catalog"
	checkoutsvc "github.com/olashile-studio/gallery-backend/internal/checkout"
	"github.com/olashile-studio/gallery-backend/internal/orders"
	"github.com/olashile-studio/gallery-backend/internal/receipts"
	"github.com/olashile-studio/gallery-backend/pkg/config"
	"github.com/olashile-studio/gallery-backend/pkg/logger"
	"github.com/olashile-studio/gallery-backend/pkg/mail"
	pkgstripe "github.com/olashile-studio/gallery-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := newSnapshotStore(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap snapshot store", err)
		os.Exit(1)
	}
	defer cleanup()

	engine, err := cart.NewEngine(ctx, store, catalog.DeclaredStock(), logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap cart engine", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(pkgstripe.NewCheckoutSessionAPI(stripeClient))
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	var sender mail.Sender
	if cfg.Email.Configured() {
		sender, err = mail.NewSendgridSender(cfg.Email)
		if err != nil {
			logg.Error(ctx, "failed to create email sender", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "email relay not configured, receipts will fail until it is")
	}
	receiptService := receipts.NewService(sender, cfg.Email.AdminAddress)

	pendingStore := orders.NewPendingStore(store, time.Duration(cfg.Checkout.PendingOrderTTLMinutes)*time.Minute)
	confirmFlow := orders.NewFlow(checkoutService, receiptService, engine, pendingStore, store, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, engine, checkoutService, pendingStore, confirmFlow),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

// newSnapshotStore picks the persistence backend: redis when configured,
// JSON files under the data dir otherwise.
func newSnapshotStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (cart.SnapshotStore, func(), error) {
	if cfg.CartData.UseRedis() {
		store, err := cart.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logg.Error(ctx, "error closing redis store", err)
			}
		}, nil
	}

	store, err := cart.NewFileStore(cfg.CartData.Dir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}
