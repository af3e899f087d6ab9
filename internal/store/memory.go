package store

import (
	"context"
	"sync"
)

const defaultMemoryID = "default"

// MemoryStore keeps spreadsheets in process memory. Rows are lost on restart.
type MemoryStore struct {
	mu    sync.Mutex
	books map[string]*memoryBook

	// OpenErr, when set, is returned by every Open call.
	OpenErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[string]*memoryBook)}
}

func (m *MemoryStore) Open(ctx context.Context, id string) (Spreadsheet, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	if id == "" {
		id = defaultMemoryID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		book = &memoryBook{store: m, sheets: make(map[string]*memorySheet)}
		m.books[id] = book
	}
	return book, nil
}

// Rows returns a copy of the rows in the given sheet, or nil when it does not
// exist.
func (m *MemoryStore) Rows(id, title string) [][]string {
	if id == "" {
		id = defaultMemoryID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[id]
	if !ok {
		return nil
	}
	sheet, ok := book.sheets[title]
	if !ok {
		return nil
	}

	out := make([][]string, len(sheet.rows))
	for i, row := range sheet.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

type memoryBook struct {
	store  *MemoryStore
	sheets map[string]*memorySheet
}

func (b *memoryBook) Sheet(ctx context.Context, title string) (Sheet, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	sheet, ok := b.sheets[title]
	if !ok {
		sheet = &memorySheet{store: b.store}
		b.sheets[title] = sheet
	}
	return sheet, nil
}

type memorySheet struct {
	store *MemoryStore
	rows  [][]string
}

func (s *memorySheet) RowCount(ctx context.Context) (int, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return len(s.rows), nil
}

func (s *memorySheet) AppendRow(ctx context.Context, row []string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.rows = append(s.rows, append([]string(nil), row...))
	return nil
}
