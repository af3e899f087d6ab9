package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	Addr        string
	MaxConns    int32
	MaxIdleTime string
}

// New opens a pgx pool and pings it. The whole setup is bounded by 30s.
func New(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("parse db addr: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	if cfg.MaxIdleTime != "" {
		idle, err := time.ParseDuration(cfg.MaxIdleTime)
		if err != nil {
			return nil, fmt.Errorf("parse max idle time: %w", err)
		}
		poolCfg.MaxConnIdleTime = idle
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
