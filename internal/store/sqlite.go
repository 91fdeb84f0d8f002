package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"litcorpus/internal/corpus"
	"litcorpus/internal/store/migrations"
)

// SQLiteStore keeps the whole corpus in a single database file under the
// data directory. This is the default provider: no server to run, durable
// commits, and one file to back up or delete.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the corpus database at dataDir/corpus.db and
// runs pending migrations.
func NewSQLite(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "corpus.db")

	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, &CorruptionError{Path: dbPath, Err: err}
	}
	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		// A database we cannot open or migrate is unusable state, not a
		// transient failure. Callers may offer a reset.
		return nil, &CorruptionError{Path: dbPath, Err: err}
	}
	return s, nil
}

// RemoveSQLiteState deletes the database file and its WAL sidecars without
// opening them. It is the recovery path when the database is too damaged for
// NewSQLite to succeed.
func RemoveSQLiteState(dataDir string) error {
	dbPath := filepath.Join(dataDir, "corpus.db")
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing state file: %w", err)
		}
	}
	return nil
}

func openSQLite(dbPath string) (*sql.DB, error) {
	// WAL keeps commits durable without blocking readers.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// migrate runs all pending migrations.
func (s *SQLiteStore) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Load reconstructs the corpus ordered by stored sequence number. A record
// that exists but does not parse, or a sequence with gaps, is reported as
// *CorruptionError rather than being silently dropped.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, key, source_path, text, metadata
		FROM documents ORDER BY seq
	`)
	if err != nil {
		return Snapshot{}, &CorruptionError{Path: s.path, Err: err}
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		var doc corpus.Document
		var metaJSON string
		if err := rows.Scan(&doc.Index, &doc.Key, &doc.SourcePath, &doc.Text, &metaJSON); err != nil {
			return Snapshot{}, &CorruptionError{Path: s.path, Err: err}
		}
		if err := json.Unmarshal([]byte(metaJSON), &doc.Meta); err != nil {
			return Snapshot{}, &CorruptionError{Path: s.path, Err: fmt.Errorf("metadata for %s: %w", doc.Key, err)}
		}
		if doc.Index != len(snap.Documents) {
			return Snapshot{}, &CorruptionError{Path: s.path, Err: fmt.Errorf("sequence gap at seq %d", doc.Index)}
		}
		snap.Documents = append(snap.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, &CorruptionError{Path: s.path, Err: err}
	}

	snap.Buffers, err = s.ListBuffers(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CommitDocument appends one document's durable record in a single
// transaction. The in-memory corpus must only reflect the document after this
// returns nil.
func (s *SQLiteStore) CommitDocument(ctx context.Context, doc corpus.Document) error {
	metaJSON, err := json.Marshal(doc.Meta)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (seq, key, source_path, text, metadata)
		VALUES (?, ?, ?, ?, ?)
	`, doc.Index, doc.Key, doc.SourcePath, doc.Text, string(metaJSON))
	if err != nil {
		return fmt.Errorf("committing document %s: %w", doc.Key, err)
	}
	return nil
}

// AppendBuffer stores one Buffer Log entry and returns it with its assigned
// identity.
func (s *SQLiteStore) AppendBuffer(ctx context.Context, text string) (Entry, error) {
	entry := Entry{ID: uuid.New(), Text: text, CreatedAt: time.Now().UTC()}
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM buffers").Scan(&entry.Seq)
	if err != nil {
		return Entry{}, fmt.Errorf("assigning buffer seq: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO buffers (id, seq, text, created_at) VALUES (?, ?, ?, ?)
	`, entry.ID.String(), entry.Seq, entry.Text, entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("appending buffer: %w", err)
	}
	return entry, nil
}

// ListBuffers returns all Buffer Log entries in append order.
func (s *SQLiteStore) ListBuffers(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, text, created_at FROM buffers ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("listing buffers: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var id string
		var createdAt sql.NullTime
		if err := rows.Scan(&id, &e.Seq, &e.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning buffer: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing buffer id: %w", err)
		}
		if createdAt.Valid {
			e.CreatedAt = createdAt.Time
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearBuffers empties the Buffer Log.
func (s *SQLiteStore) ClearBuffers(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM buffers")
	return err
}

// Reset deletes all durable state. The database file itself is removed so a
// corrupt record can always be cleared, then the store is reopened empty.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing state file: %w", err)
		}
	}
	db, err := openSQLite(s.path)
	if err != nil {
		return err
	}
	s.db = db
	if err := s.migrate(migrations.FS); err != nil {
		return fmt.Errorf("recreating schema: %w", err)
	}
	return nil
}
