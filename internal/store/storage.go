package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnknownDriver     = errors.New("unknown store driver")
	QueryTimeoutDuration = time.Second * 5
)

// Opener opens a spreadsheet-like store by identifier. An empty id selects
// the backend's default store.
type Opener interface {
	Open(ctx context.Context, id string) (Spreadsheet, error)
}

// Spreadsheet is a named collection of sheets.
type Spreadsheet interface {
	// Sheet returns the sheet with the given title, creating it when absent.
	Sheet(ctx context.Context, title string) (Sheet, error)
}

// Sheet is an append-only table of string rows.
type Sheet interface {
	RowCount(ctx context.Context) (int, error)
	AppendRow(ctx context.Context, row []string) error
}

// Driver names accepted by configuration.
const (
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)
