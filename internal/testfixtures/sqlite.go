package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/collection-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool      *sqlite.ConnectionPool
	Entries   *sqlite.ScheduleRepository
	Directory *sqlite.DirectoryRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "scheduler.db")

	pool, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:      pool,
		Entries:   sqlite.NewScheduleRepository(pool),
		Directory: sqlite.NewDirectoryRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedDirectory inserts building and staff rows directly. The engine treats
// the directory as read-only, so tests populate it at the SQL level.
func (h *SQLiteHarness) SeedDirectory(tb testing.TB, buildings [][3]string, staff [][3]string) {
	tb.Helper()

	ctx := context.Background()
	for _, row := range buildings {
		_, err := h.Pool.DB().ExecContext(ctx,
			"INSERT INTO buildings (id, name, address) VALUES (?, ?, ?)", row[0], row[1], row[2])
		if err != nil {
			tb.Fatalf("failed to seed building %s: %v", row[0], err)
		}
	}
	for _, row := range staff {
		_, err := h.Pool.DB().ExecContext(ctx,
			"INSERT INTO staff_members (id, full_name, role) VALUES (?, ?, ?)", row[0], row[1], row[2])
		if err != nil {
			tb.Fatalf("failed to seed staff member %s: %v", row[0], err)
		}
	}
}
