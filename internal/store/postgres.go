package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	DefaultRowsTable    = "sheet_rows"
	defaultWorkbookName = "default"
)

// Querier is satisfied by *pgxpool.Pool, pgx.Tx and test mocks.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps every sheet of every workbook in one table of JSON rows.
// position is an identity column, so concurrent appends never collide and a
// sheet's rows read back in insertion order.
type PostgresStore struct {
	q     Querier
	table string
	index string

	mu      sync.Mutex
	ensured bool
}

func NewPostgresStore(q Querier, table string) *PostgresStore {
	if table == "" {
		table = DefaultRowsTable
	}
	return &PostgresStore{
		q:     q,
		table: pq.QuoteIdentifier(table),
		index: pq.QuoteIdentifier(table + "_sheet_idx"),
	}
}

func (s *PostgresStore) ensureTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			workbook   TEXT        NOT NULL,
			sheet      TEXT        NOT NULL,
			position   BIGINT      GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			cells      JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table)
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (workbook, sheet, position)`, s.index, s.table)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.q.Exec(ctx, query); err != nil {
		return fmt.Errorf("create rows table: %w", err)
	}
	if _, err := s.q.Exec(ctx, index); err != nil {
		return fmt.Errorf("create rows index: %w", err)
	}
	s.ensured = true
	return nil
}

func (s *PostgresStore) Open(ctx context.Context, id string) (Spreadsheet, error) {
	if id == "" {
		id = defaultWorkbookName
	}
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	return &pgBook{store: s, workbook: id}, nil
}

type pgBook struct {
	store    *PostgresStore
	workbook string
}

// Sheet never fails: a sheet exists as soon as it has a row.
func (b *pgBook) Sheet(ctx context.Context, title string) (Sheet, error) {
	return &pgSheet{store: b.store, workbook: b.workbook, title: title}, nil
}

type pgSheet struct {
	store    *PostgresStore
	workbook string
	title    string
}

func (s *pgSheet) RowCount(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE workbook = $1 AND sheet = $2`, s.store.table)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var n int64
	if err := s.store.q.QueryRow(ctx, query, s.workbook, s.title).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows in %s/%s: %w", s.workbook, s.title, err)
	}
	return int(n), nil
}

func (s *pgSheet) AppendRow(ctx context.Context, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (workbook, sheet, cells) VALUES ($1, $2, $3)`, s.store.table)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if _, err := s.store.q.Exec(ctx, query, s.workbook, s.title, cells); err != nil {
		return fmt.Errorf("append row to %s/%s: %w", s.workbook, s.title, err)
	}
	return nil
}
