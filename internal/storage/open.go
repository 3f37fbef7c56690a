package storage

import (
	"context"
	"fmt"

	"github.com/mohammed-shakir/mapnotes/internal/storage/memstore"
	"github.com/mohammed-shakir/mapnotes/internal/storage/redisstore"
	"github.com/mohammed-shakir/mapnotes/internal/storage/sqlitestore"
)

type Config struct {
	Backend     Backend
	SQLitePath  string
	RedisAddr   string
	RedisPrefix string
}

// Open connects the configured backend and verifies it answers.
func Open(ctx context.Context, cfg Config) (KV, error) {
	switch cfg.Backend {
	case BackendMemory:
		return memstore.New(), nil
	case BackendRedis:
		c, err := redisstore.New(ctx, cfg.RedisAddr, redisstore.WithPrefix(cfg.RedisPrefix))
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return c, nil
	case BackendSQLite, "":
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
