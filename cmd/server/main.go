package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/watchroom/internal/adapters/http"
	wssignal "github.com/dkeye/watchroom/internal/adapters/signal"
	"github.com/dkeye/watchroom/internal/app"
	"github.com/dkeye/watchroom/internal/audit"
	"github.com/dkeye/watchroom/internal/config"
	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/storage/codec"
	"github.com/dkeye/watchroom/internal/storage/file"
	"github.com/dkeye/watchroom/internal/storage/sqlstore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("watchroom server failed")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.Log.Level).Msg("unknown log level, keeping info")
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	auditLog, err := openAudit(cfg.Audit)
	if err != nil {
		return err
	}

	rooms, err := app.NewRoomService(ctx, app.Options{
		Store:     store,
		Audit:     auditLog,
		AdminName: cfg.Room.AdminName,
		Fresh:     cfg.Room.Fresh,
	})
	if err != nil {
		return fmt.Errorf("start room: %w", err)
	}

	reg := app.NewRegistry()
	limiter := wssignal.NewRateLimiter(cfg.RateLimit.Commands, cfg.RateLimit.Interval)
	sig := wssignal.NewSignalWSController(rooms, reg, limiter, wssignal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Rooms:    rooms,
		Audit:    auditLog,
		Registry: reg,
		Signal:   sig,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("store", cfg.Store.Driver).Msg("watchroom server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (core.Store, func(), error) {
	switch cfg.Driver {
	case "file":
		c, err := codec.ByName(cfg.Codec)
		if err != nil {
			return nil, nil, err
		}
		if err := ensureDir(cfg.Path); err != nil {
			return nil, nil, err
		}
		return file.New(cfg.Path, c), func() {}, nil
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		s, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN, cfg.Slot)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Msg("close store")
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func openAudit(cfg config.AuditConfig) (core.AuditLog, error) {
	if cfg.Path == "" {
		log.Warn().Msg("audit.path is empty, keeping the room log in memory")
		return audit.NewMemoryLog(), nil
	}
	if err := ensureDir(cfg.Path); err != nil {
		return nil, err
	}
	return audit.NewFileLog(cfg.Path), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
