package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Addr         string
	Store        string
	SQLitePath   string
	DatabaseURL  string
	PGMaxConns   int32
	RedisAddr    string
	RedisDB      int
	LogLevel     logrus.Level
	StaticDir    string
	Seed         bool
	SeedPassword string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadConfig reads .env (if present) and then the process environment.
func loadConfig() (*Config, error) {
	godotenv.Load()
	return configFromEnv()
}

func configFromEnv() (*Config, error) {
	cfg := &Config{
		Addr:         getenv("ADDR", ":8080"),
		Store:        getenv("STORE", "sqlite"),
		SQLitePath:   getenv("SQLITE_PATH", "social.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		StaticDir:    getenv("STATIC_DIR", "static"),
		SeedPassword: getenv("SEED_PASSWORD", "password"),
	}

	switch cfg.Store {
	case "sqlite", "redis":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE %q (want sqlite, postgres or redis)", cfg.Store)
	}

	maxConns, err := strconv.ParseInt(getenv("PG_MAX_CONNS", "10"), 10, 32)
	if err != nil || maxConns < 1 {
		return nil, fmt.Errorf("invalid PG_MAX_CONNS %q", os.Getenv("PG_MAX_CONNS"))
	}
	cfg.PGMaxConns = int32(maxConns)

	cfg.RedisDB, err = strconv.Atoi(getenv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.LogLevel, err = logrus.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if v := os.Getenv("SEED"); v != "" {
		cfg.Seed, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEED: %w", err)
		}
	}

	return cfg, nil
}
