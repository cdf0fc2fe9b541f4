// Package store keeps a PostgreSQL history of extraction runs: which messages
// a template contained and where each one was found.
package store

import (
	"context"
	"fmt"

	"i18nextract/internal/message"
	"i18nextract/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DBTX is the subset of *pgxpool.Pool used by the store.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS extraction_runs (
		id         BIGSERIAL PRIMARY KEY,
		domain     TEXT NOT NULL,
		output     TEXT NOT NULL,
		version    TEXT NOT NULL,
		entries    INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		hash         TEXT PRIMARY KEY,
		msgid        TEXT NOT NULL,
		default_text TEXT,
		first_run    BIGINT NOT NULL REFERENCES extraction_runs(id)
	)`,
	`CREATE TABLE IF NOT EXISTS occurrences (
		run_id BIGINT NOT NULL REFERENCES extraction_runs(id) ON DELETE CASCADE,
		hash   TEXT NOT NULL REFERENCES messages(hash),
		file   TEXT NOT NULL,
		line   INTEGER NOT NULL,
		PRIMARY KEY (run_id, hash, file, line)
	)`,
}

// Run describes one written template.
type Run struct {
	Domain  string
	Output  string
	Version string
}

// Result summarizes a recorded run.
type Result struct {
	RunID       int64
	NewMessages int
	Occurrences int
}

// Store records extraction runs.
type Store struct {
	db DBTX
}

// New creates a store on db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Connect opens and pings a connection pool.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Record stores a run and its messages. Messages are keyed by the hash of
// their text; a message already known keeps its first default.
func (s *Store) Record(ctx context.Context, run Run, set message.Set) (Result, error) {
	var res Result
	err := s.db.QueryRow(ctx,
		`INSERT INTO extraction_runs (domain, output, version, entries) VALUES ($1, $2, $3, $4) RETURNING id`,
		run.Domain, run.Output, run.Version, len(set),
	).Scan(&res.RunID)
	if err != nil {
		return res, fmt.Errorf("insert run: %w", err)
	}

	for _, x := range set {
		hash := textutil.Hash(x.Key.Text)
		var def *string
		if x.Key.HasDefault {
			def = &x.Key.Default
		}
		tag, err := s.db.Exec(ctx,
			`INSERT INTO messages (hash, msgid, default_text, first_run) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (hash) DO NOTHING`,
			hash, x.Key.Text, def, res.RunID,
		)
		if err != nil {
			return res, fmt.Errorf("upsert message %q: %w", textutil.Truncate(x.Key.Text, 40), err)
		}
		if tag.RowsAffected() > 0 {
			res.NewMessages++
		}

		for _, o := range x.Occurrences {
			tag, err := s.db.Exec(ctx,
				`INSERT INTO occurrences (run_id, hash, file, line) VALUES ($1, $2, $3, $4)
				 ON CONFLICT DO NOTHING`,
				res.RunID, hash, o.File, o.Line,
			)
			if err != nil {
				return res, fmt.Errorf("insert occurrence %s:%d: %w", o.File, o.Line, err)
			}
			res.Occurrences += int(tag.RowsAffected())
		}
	}

	log.Info().
		Int64("run", res.RunID).
		Int("messages", len(set)).
		Int("new", res.NewMessages).
		Msg("Recorded extraction run")
	return res, nil
}
