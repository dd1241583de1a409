package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/debtledger/internal/auth"
	"github.com/mmynk/debtledger/internal/config"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/metrics"
	"github.com/mmynk/debtledger/internal/middleware"
	"github.com/mmynk/debtledger/internal/notify"
	"github.com/mmynk/debtledger/internal/receipt"
	"github.com/mmynk/debtledger/internal/service"
	"github.com/mmynk/debtledger/internal/storage/sqlite"
	"github.com/mmynk/debtledger/pkg/api/apiconnect"
	"github.com/mmynk/debtledger/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup structured logging
	logger := logging.Setup(logging.ParseLevel(cfg.LogLevel))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath,
		sqlite.WithRetryBudget(cfg.StoreRetryBudget),
		sqlite.WithLogger(logger),
		sqlite.WithConflictHook(m.StoreConflict),
	)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath, "retry_budget", cfg.StoreRetryBudget)

	hub := notify.NewHub(store, logger)
	defer hub.Close()

	ledgerSvc := ledger.New(store, logger,
		ledger.WithNotifier(hub),
		ledger.WithMetrics(m),
		ledger.WithSplitConcurrency(cfg.SplitConcurrency),
	)

	var extractor receipt.Extractor
	if cfg.ReceiptExtractorURL != "" {
		extractor = receipt.NewHTTPExtractor(cfg.ReceiptExtractorURL, cfg.ReceiptExtractorAPIKey, cfg.ReceiptExtractorTimeout)
		logger.Info("Receipt extraction enabled", "url", cfg.ReceiptExtractorURL)
	} else {
		logger.Warn("RECEIPT_EXTRACTOR_URL not set, receipts must be entered manually")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	adminAuth, err := auth.NewPasswordAuthenticator(cfg.AdminPasswordHash, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("configuring admin login: %w", err)
	}
	if !adminAuth.Enabled() {
		logger.Warn("No admin password configured, admin login is disabled")
	}

	interceptors := connect.WithInterceptors(
		middleware.NewAuthInterceptor(jwtManager, logger, apiconnect.PublicProcedures...),
		middleware.NewLoggingInterceptor(logger),
	)

	mux := http.NewServeMux()

	// Register Connect services
	ledgerPath, ledgerHandler := apiconnect.NewLedgerServiceHandler(service.NewLedgerService(ledgerSvc, hub, logger), interceptors)
	mux.Handle(ledgerPath, ledgerHandler)

	splitPath, splitHandler := apiconnect.NewSplitServiceHandler(service.NewSplitService(ledgerSvc, extractor, logger), interceptors)
	mux.Handle(splitPath, splitHandler)

	authSvc := service.NewAuthService(adminAuth, auth.NewAccessCodeAuthenticator(ledgerSvc), jwtManager, logger)
	authPath, authHandler := apiconnect.NewAuthServiceHandler(authSvc, interceptors)
	mux.Handle(authPath, authHandler)

	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkBalances(ctx, ledgerSvc, logger)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Connect server starting", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		// End open Watch streams so Shutdown does not wait on them.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// checkBalances reconciles every friend once at startup. Drift is logged by
// the ledger; nothing is rewritten.
func checkBalances(ctx context.Context, l *ledger.Service, logger *slog.Logger) {
	friends, err := l.ListFriends(ctx)
	if err != nil {
		logger.Error("Startup balance check failed", "error", err)
		return
	}
	drifted := 0
	for _, f := range friends {
		rec, err := l.Reconcile(ctx, f.ID)
		if err != nil {
			logger.Error("Startup balance check failed", "friend_id", f.ID, "error", err)
			continue
		}
		if !rec.Consistent {
			drifted++
		}
	}
	logger.Info("Startup balance check done", "friends", len(friends), "drifted", drifted)
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
