package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// minSpreadsheetIDLen guards against half-filled config values; anything
// shorter is treated as unset.
const minSpreadsheetIDLen = 10

// SheetsStore appends rows to Google Sheets.
type SheetsStore struct {
	svc       *sheets.Service
	defaultID string
}

// NewSheetsStore creates a Sheets client. defaultID is used whenever Open is
// called without a usable spreadsheet id.
func NewSheetsStore(ctx context.Context, defaultID string, opts ...option.ClientOption) (*SheetsStore, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &SheetsStore{svc: svc, defaultID: defaultID}, nil
}

func (s *SheetsStore) Open(ctx context.Context, id string) (Spreadsheet, error) {
	id = strings.TrimSpace(id)
	if len(id) <= minSpreadsheetIDLen {
		id = s.defaultID
	}
	if id == "" {
		return nil, fmt.Errorf("no spreadsheet id configured")
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	doc, err := s.svc.Spreadsheets.Get(id).Fields("spreadsheetId", "sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", id, err)
	}

	titles := make(map[string]bool, len(doc.Sheets))
	for _, sh := range doc.Sheets {
		if sh.Properties != nil {
			titles[sh.Properties.Title] = true
		}
	}

	return &sheetsBook{svc: s.svc, id: id, titles: titles}, nil
}

type sheetsBook struct {
	svc *sheets.Service
	id  string

	mu     sync.Mutex
	titles map[string]bool
}

func (b *sheetsBook) Sheet(ctx context.Context, title string) (Sheet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.titles[title] {
		ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
		defer cancel()

		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			}},
		}
		if _, err := b.svc.Spreadsheets.BatchUpdate(b.id, req).Context(ctx).Do(); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", title, err)
		}
		b.titles[title] = true
	}

	return &sheetsTab{svc: b.svc, id: b.id, title: title}, nil
}

type sheetsTab struct {
	svc   *sheets.Service
	id    string
	title string
}

// a1Range quotes a sheet title for A1 notation.
func a1Range(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func (t *sheetsTab) RowCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	vr, err := t.svc.Spreadsheets.Values.Get(t.id, a1Range(t.title)).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("read sheet %q: %w", t.title, err)
	}
	return len(vr.Values), nil
}

func (t *sheetsTab) AppendRow(ctx context.Context, row []string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}

	_, err := t.svc.Spreadsheets.Values.Append(t.id, a1Range(t.title), &sheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{cells},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to sheet %q: %w", t.title, err)
	}
	return nil
}
