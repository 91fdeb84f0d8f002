package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"litcorpus/internal/corpus"
)

// PostgresStore is an alternative State Store provider for deployments that
// already run Postgres. Semantics match the SQLite provider; reset truncates
// instead of deleting a file.
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgres connects and ensures the schema exists.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db, dsn: dsn}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			seq INT PRIMARY KEY,
			key TEXT NOT NULL UNIQUE,
			source_path TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			authors TEXT[],
			year TEXT,
			title TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS buffers (
			id UUID PRIMARY KEY,
			seq INT NOT NULL,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// Load reconstructs the corpus ordered by stored sequence number.
func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, key, source_path, text, authors, year, title
		FROM documents ORDER BY seq
	`)
	if err != nil {
		return Snapshot{}, &CorruptionError{Path: "postgres", Err: err}
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		var doc corpus.Document
		var year, title sql.NullString
		if err := rows.Scan(&doc.Index, &doc.Key, &doc.SourcePath, &doc.Text,
			pq.Array(&doc.Meta.Authors), &year, &title); err != nil {
			return Snapshot{}, &CorruptionError{Path: "postgres", Err: err}
		}
		if year.Valid {
			doc.Meta.Year = corpus.Some(year.String)
		}
		if title.Valid {
			doc.Meta.Title = corpus.Some(title.String)
		}
		if doc.Index != len(snap.Documents) {
			return Snapshot{}, &CorruptionError{Path: "postgres", Err: fmt.Errorf("sequence gap at seq %d", doc.Index)}
		}
		snap.Documents = append(snap.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, &CorruptionError{Path: "postgres", Err: err}
	}

	snap.Buffers, err = s.ListBuffers(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CommitDocument appends one document's durable record.
func (s *PostgresStore) CommitDocument(ctx context.Context, doc corpus.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (seq, key, source_path, text, authors, year, title)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doc.Index, doc.Key, doc.SourcePath, doc.Text,
		pq.Array(doc.Meta.Authors), nullField(doc.Meta.Year), nullField(doc.Meta.Title))
	if err != nil {
		return fmt.Errorf("committing document %s: %w", doc.Key, err)
	}
	return nil
}

func (s *PostgresStore) AppendBuffer(ctx context.Context, text string) (Entry, error) {
	entry := Entry{ID: uuid.New(), Text: text, CreatedAt: time.Now().UTC()}
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM buffers").Scan(&entry.Seq)
	if err != nil {
		return Entry{}, fmt.Errorf("assigning buffer seq: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO buffers (id, seq, text, created_at) VALUES ($1, $2, $3, $4)
	`, entry.ID, entry.Seq, entry.Text, entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("appending buffer: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) ListBuffers(ctx context.Context) ([]Entry, error) {
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
		if err := rows.Scan(&e.ID, &e.Seq, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning buffer: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) ClearBuffers(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM buffers")
	return err
}

// Reset deletes all durable state.
func (s *PostgresStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "TRUNCATE documents, buffers")
	if err != nil {
		return fmt.Errorf("resetting state: %w", err)
	}
	return nil
}

func nullField(f corpus.Field) sql.NullString {
	return sql.NullString{String: f.Value, Valid: f.Valid}
}
