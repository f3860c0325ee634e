// Package main implements widgetd, an HTTP service holding an in-memory
// board of z-ordered widgets.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                widgetd                   │
//	├─────────────────────────────────────────┤
//	│  HTTP API (internal/server):            │
//	│    /api/widgets        - CRUD + list    │
//	│    /api/widgets/page   - Paged list     │
//	│    /health             - Health check   │
//	│    /info               - Board stats    │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    board.Board   - Placement + locking  │
//	│    zindex.Index  - Ordered z-keys       │
//	│    storage       - Widget records       │
//	└─────────────────────────────────────────┘
//
// Configuration is read from an optional YAML or JSON file (-config or
// WIDGETD_CONFIG) and then overridden by WIDGETD_* environment variables.
// See internal/config for the full list.
//
// Example usage:
//
//	WIDGETD_LISTEN=:8080 WIDGETD_LOG_LEVEL=debug ./widgetd
//
//	curl -X POST localhost:8080/api/widgets \
//	  -d '{"x-index":10,"y-index":20,"z-index":2,"width":100,"height":50}'
//	curl 'localhost:8080/api/widgets/page?page=0&size=10'
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dreamware/widgetboard/internal/board"
	"github.com/dreamware/widgetboard/internal/config"
	"github.com/dreamware/widgetboard/internal/logging"
	"github.com/dreamware/widgetboard/internal/server"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		logFatal("widgetd: %v", err)
	}
}

// run loads configuration, binds the listener and serves until ctx is done
func run(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}

	b := board.New(board.WithLogger(logger))
	return serve(ctx, ln, b, cfg, logger)
}

// loadConfig applies defaults, the config file, the environment and flags, in that order
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("widgetd", flag.ContinueOnError)
	path := fs.String("config", os.Getenv(config.EnvConfig), "path to a YAML or JSON config file")
	listen := fs.String("listen", "", "listen address, overrides config")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.FromEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format, w), nil
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down
// within cfg.ShutdownTimeout.
func serve(ctx context.Context, ln net.Listener, b *board.Board, cfg config.Config, logger *slog.Logger) error {
	srv := server.New(b, server.Options{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
		RateLimit:       cfg.RateLimit,
		RateBurst:       cfg.RateBurst,
	}, logger)

	hs := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second, // Prevent slowloris attacks
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("widgetd listening", "addr", ln.Addr().String())
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			logger.Warn("server shutdown error", "error", err)
			return err
		}
		return nil
	})

	err := g.Wait()
	logger.Info("widgetd stopped", "widgets", b.Stats().Widgets)
	return err
}
