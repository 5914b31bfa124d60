package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/settleup/internal/assist"
	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/buildinfo"
	"github.com/mmynk/settleup/internal/cache"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
	"github.com/mmynk/settleup/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.Setup(cfg.LoggingOptions())
	logger.Info("Starting settleup", "version", buildinfo.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	var settlementCache cache.SettlementCache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.Dial(ctx, cfg.RedisURL, cfg.SettlementCacheTTL)
		if err != nil {
			return err
		}
		defer rc.Close()
		settlementCache = rc
		logger.Info("Settlement cache enabled", "ttl", cfg.SettlementCacheTTL)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	categorizer := assist.NewKeywordCategorizer()
	ledger := service.NewLedger(store, settlementCache, logger)

	// The first interceptor is the outermost. Auth sits innermost so that
	// rejected calls are still counted and logged; the logging interceptor
	// picks up the authenticated user through the context.
	interceptors := func(authn connect.Interceptor) connect.HandlerOption {
		return connect.WithInterceptors(
			middleware.MetricsInterceptor(),
			middleware.LoggingInterceptor(logger),
			authn,
		)
	}
	public := interceptors(middleware.OptionalAuth(jwtManager))
	private := interceptors(middleware.RequireAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager, store, logger), public))
	mux.Handle(apiconnect.NewGroupServiceHandler(service.NewGroupService(store, ledger, logger), private))
	mux.Handle(apiconnect.NewExpenseServiceHandler(service.NewExpenseService(store, ledger, categorizer, logger), private))
	mux.Handle(apiconnect.NewAssistServiceHandler(service.NewAssistService(store, ledger, categorizer, logger), private))

	if cfg.StaticPath != "" {
		staticDir, err := filepath.Abs(cfg.StaticPath)
		if err != nil {
			return fmt.Errorf("resolving static path: %w", err)
		}
		mux.Handle("/", staticHandler(staticDir))
		logger.Info("Serving static files", "path", staticDir)
	}

	// h2c serves HTTP/2 without TLS, which Connect and gRPC clients need.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(middleware.RequestLogger(middleware.CORS(mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	servers := []*http.Server{server}
	if cfg.MetricsPort != 0 {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("Listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

// staticHandler serves the frontend from dir. Unknown paths get index.html
// so client-side routes work; RPC paths that reach it are real 404s.
func staticHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/settleup.v1.") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(dir, filepath.Clean("/"+urlPath))
		if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})
}
