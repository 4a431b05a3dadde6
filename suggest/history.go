package suggest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	// HistoryLimit is the number of inputs kept by default.
	HistoryLimit = 50
	// MaxCompletions caps Autocomplete results.
	MaxCompletions = 5
)

// DefaultPhrases top up autocomplete when history has few matches.
var DefaultPhrases = []string{
	"Password input field with show/hide option",
	"Clickable button to add an item to cart",
	"Remember me checkbox below login form",
	"Search input with autocomplete",
	"Toggle switch for settings",
}

// HistoryEntry is one saved input.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	CreatedAt time.Time `json:"createdAt"`
}

// History persists user inputs in sqlite, most recent first, without
// duplicates.
type History struct {
	db    *sql.DB
	limit int
}

// OpenHistory opens or creates the history database at path. A limit
// below 1 means HistoryLimit.
func OpenHistory(path string, limit int) (*History, error) {
	if limit < 1 {
		limit = HistoryLimit
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	h := &History{db: db, limit: limit}
	if err := h.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) migrate(ctx context.Context) error {
	const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS history (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  input TEXT NOT NULL UNIQUE,
  created_at DATETIME NOT NULL
);`
	if _, err := h.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	return nil
}

// Save records input as the most recent entry. Blank input is ignored.
func (h *History) Save(ctx context.Context, input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE input = ?`, input); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO history (id, input, created_at)
VALUES (?, ?, ?)`, uuid.NewString(), input, time.Now().UTC()); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM history
WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT ?)`, h.limit); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return tx.Commit()
}

// List returns the saved entries, most recent first.
func (h *History) List(ctx context.Context) ([]HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx, `
SELECT id, input, created_at
FROM history
ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, h.limit)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Input, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Inputs returns the saved inputs, most recent first.
func (h *History) Inputs(ctx context.Context) ([]string, error) {
	entries, err := h.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Input
	}
	return out, nil
}

// Clear removes every entry.
func (h *History) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Autocomplete returns up to MaxCompletions completions for value: history
// entries containing it (case-insensitively, excluding exact matches)
// followed by matching DefaultPhrases.
func Autocomplete(history []string, value string) []string {
	out := []string{}
	if strings.TrimSpace(value) == "" {
		return out
	}
	lower := strings.ToLower(value)
	matches := func(s string) bool {
		return s != value && strings.Contains(strings.ToLower(s), lower)
	}
	for _, item := range history {
		if len(out) == MaxCompletions {
			return out
		}
		if matches(item) {
			out = append(out, item)
		}
	}
	for _, phrase := range DefaultPhrases {
		if len(out) == MaxCompletions {
			break
		}
		if matches(phrase) && !slices.Contains(out, phrase) {
			out = append(out, phrase)
		}
	}
	return out
}
