package main

import (
	"context"
	"expvar"
	"fmt"

	"intake/internal/db"
	"intake/internal/store"

	"google.golang.org/api/option"
)

// openStore builds the configured store backend. The returned func releases
// whatever the backend holds open.
func openStore(ctx context.Context, cfg storeConfig, dbCfg dbConfig) (store.Opener, func(), error) {
	switch cfg.Driver {
	case store.DriverSheets:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		s, err := store.NewSheetsStore(ctx, cfg.DefaultID, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil

	case store.DriverPostgres:
		pool, err := db.New(ctx, db.Config{
			Addr:        dbCfg.Addr,
			MaxConns:    dbCfg.MaxConns,
			MaxIdleTime: dbCfg.MaxIdleTime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		expvar.Publish("database", expvar.Func(func() any {
			st := pool.Stat()
			return map[string]any{
				"total_conns":    st.TotalConns(),
				"idle_conns":     st.IdleConns(),
				"acquired_conns": st.AcquiredConns(),
				"max_conns":      st.MaxConns(),
			}
		}))
		return store.NewPostgresStore(pool, ""), pool.Close, nil

	case store.DriverMemory:
		return store.NewMemoryStore(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", store.ErrUnknownDriver, cfg.Driver)
}
