package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

type App struct {
	store     Store
	templates map[string]*template.Template
	log       *log.Logger
	staticDir string
}

func NewApp(store Store, logger *log.Logger) (*App, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &App{
		store:     store,
		templates: templates,
		log:       logger,
	}, nil
}

func openStore(ctx context.Context, cfg *Config) (WriteStore, error) {
	switch cfg.Store {
	case "postgres":
		s, err := newPostgresStore(ctx, cfg.DatabaseURL, cfg.PGMaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s, err := newRedisStore(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := newSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func main() {
	seed := flag.Bool("seed", false, "load the fixture users and posts into an empty store")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := log.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("opening %s store: %v", cfg.Store, err)
	}
	defer store.Close()

	if *seed || cfg.Seed {
		if err := seedDB(ctx, store, cfg.SeedPassword, time.Now()); err != nil {
			logger.Fatalf("seeding store: %v", err)
		}
		logger.Info("store seeded")
	}

	app, err := NewApp(store, logger)
	if err != nil {
		logger.Fatalf("loading templates: %v", err)
	}
	app.staticDir = cfg.StaticDir

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      app.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatalf("listening on %s: %v", cfg.Addr, err)
	}

	logger.WithFields(log.Fields{"addr": ln.Addr().String(), "store": cfg.Store}).Info("server starting")
	if err := serve(ctx, srv, ln, 10*time.Second); err != nil {
		logger.Errorf("serving: %v", err)
		return
	}
	logger.Info("server stopped")
}

// serve runs srv on ln until ctx is done, then returns only after Shutdown
// has drained in-flight requests or grace has elapsed.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-done; err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
