package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pharmgate/qrtoken-service/internal/config"
	"github.com/pharmgate/qrtoken-service/internal/service"
	"github.com/pharmgate/qrtoken-service/internal/storage/mongo"
	"github.com/pharmgate/qrtoken-service/internal/storage/postgres"
	"github.com/pharmgate/qrtoken-service/internal/token"
	qrhttp "github.com/pharmgate/qrtoken-service/internal/transport/http"
	"github.com/pharmgate/qrtoken-service/migrations"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// janitorPeriod — период фоновой очистки просроченных записей.
const janitorPeriod = time.Hour

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting qrtoken-service", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Ключ подписи проверяется до подключения к хранилищам: сервис со слабым
	// или заглушечным ключом не должен стартовать вовсе.
	signer, err := token.NewSigner([]byte(cfg.Token.SigningKey))
	if err != nil {
		log.Error("signing_key_rejected", slog.String("err", err.Error()))
		os.Exit(1)
	}

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("postgres_connected")

	if err := migrations.Up(store.Pool()); err != nil {
		log.Error("migrations_failed", slog.String("err", err.Error()))
		store.Close()
		os.Exit(1)
	}
	log.Info("migrations_applied")

	auditCtx, auditCancel := context.WithTimeout(rootCtx, 10*time.Second)
	auditStore, err := mongo.New(auditCtx, cfg.Audit.DatabaseURL)
	auditCancel()
	if err != nil {
		log.Error("mongo_connect_failed", slog.String("err", err.Error()))
		store.Close()
		os.Exit(1)
	}
	log.Info("mongo_connected")

	svc := service.New(store, auditStore, signer, service.Options{
		ValidityWindow: cfg.Token.ValidityWindow,
		AuditRetention: cfg.Audit.Retention,
		Logger:         log,
	})
	log.Info("service_initialized")

	// Служебный сервер: liveness/readiness/metrics.
	var ready int32 // 0 — not ready; 1 — ready
	opsAddr := cfg.Ops.Addr()

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	mux.Handle("/metrics", promhttp.Handler())

	opsSrv := &http.Server{
		Addr:              opsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("ops_listen_start", "addr", opsAddr)
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops_serve_failed", slog.String("err", err.Error()))
		}
	}()

	// API-сервер.
	apiHandler := qrhttp.NewRouter(svc, qrhttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Authn:   cfg.Authn,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           apiHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		store.Close()
		_ = auditStore.Close(context.Background())
		os.Exit(1)
	}
	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	// Фоновая очистка: записи, просроченные дольше token.retention, удаляются.
	go func() {
		ticker := time.NewTicker(janitorPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				purgeCtx, cancel := context.WithTimeout(rootCtx, time.Minute)
				deleted, perr := svc.PurgeStaleTokens(purgeCtx, time.Now().UTC().Add(-cfg.Token.Retention))
				cancel()

				if perr != nil {
					log.Warn("janitor_purge_failed", slog.String("err", perr.Error()))
					continue
				}
				if deleted > 0 {
					log.Info("janitor_purged", slog.Int64("deleted", deleted))
				}
			}
		}
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("qrtoken_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Порядок важен: сначала API (новых событий аудита не будет), затем
	// дожидаемся доставки очереди аудита, после чего закрываем хранилища.
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	if err := svc.Close(shutdownCtx); err != nil {
		log.Warn("audit_flush_incomplete", slog.String("err", err.Error()))
	}

	_ = opsSrv.Shutdown(shutdownCtx)

	store.Close()
	_ = auditStore.Close(context.Background())

	log.Info("service_stopped")
}

// setupLogger — текстовый debug-лог локально, JSON в dev/prod.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
