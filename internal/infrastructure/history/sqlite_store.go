package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/zai-go/internal/domain"
	"github.com/doeshing/zai-go/internal/ports"
)

// SQLiteStore persists served suggestions so users can audit what the
// assistant produced and where each suggestion came from.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the suggestion database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open suggestion db: %w", err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS suggestions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			prefix TEXT NOT NULL,
			clipboard_kind TEXT NOT NULL,
			source TEXT NOT NULL,
			suggestion TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate suggestion db: %w", err)
	}
	return nil
}

// Save appends one served suggestion.
func (s *SQLiteStore) Save(record domain.SuggestionRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO suggestions (timestamp, prefix, clipboard_kind, source, suggestion, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.Timestamp.Format(domain.TimestampFormat), record.Prefix, string(record.ClipboardKind),
		string(record.Source), record.Suggestion, record.DurationMS,
	)
	return err
}

// Records returns up to limit suggestions, newest first. A non-empty search
// restricts results to rows whose prefix or suggestion contains it.
func (s *SQLiteStore) Records(limit int, search string) ([]domain.SuggestionRecord, error) {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	query := `SELECT timestamp, prefix, clipboard_kind, source, suggestion, duration_ms
		 FROM suggestions`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE prefix LIKE ? OR suggestion LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.SuggestionRecord
	for rows.Next() {
		var r domain.SuggestionRecord
		var stamp, kind, source string
		if err := rows.Scan(&stamp, &r.Prefix, &kind, &source, &r.Suggestion, &r.DurationMS); err != nil {
			return nil, err
		}
		r.Timestamp, _ = time.Parse(domain.TimestampFormat, stamp)
		r.ClipboardKind = domain.ClipboardKind(kind)
		r.Source = domain.SuggestionSource(source)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Clear drops every logged suggestion.
func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM suggestions`)
	return err
}

// Path reports where the database lives.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.SuggestionStore = (*SQLiteStore)(nil)
