// Package pgstore implements docstore.Store on PostgreSQL.
//
// All collections share one table, documents(collection, id, body jsonb).
// Bodies are relaxed MongoDB Extended JSON so the same bson struct tags drive
// every backend. Transactions run at SERIALIZABLE and are retried on
// serialization failures and deadlocks.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dalemusser/reelhub/internal/app/system/docstore"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds serialization-failure retries.
const DefaultMaxAttempts = 5

var fieldName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store wraps a pgx pool.
type Store struct {
	pool        *pgxpool.Pool
	log         *zap.Logger
	maxAttempts int
}

// Open parses dsn, connects a pool and verifies it with a ping.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("pgstore: dsn required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return New(pool, logger), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pool: pool, log: logger, maxAttempts: DefaultMaxAttempts}
}

// EnsureSchema creates the documents table and one expression index per
// queried field. It is idempotent.
func (s *Store) EnsureSchema(ctx context.Context, indexedFields ...string) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       JSONB NOT NULL,
	PRIMARY KEY (collection, id)
)`)
	if err != nil {
		return fmt.Errorf("pgstore: create documents table: %w", err)
	}
	for _, f := range indexedFields {
		if !fieldName.MatchString(f) {
			return fmt.Errorf("pgstore: invalid index field %q", f)
		}
		stmt := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS documents_%s_idx ON documents (collection, (body->>'%s'))`, f, f)
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgstore: create index on %s: %w", f, err)
		}
		s.log.Debug("ensured documents index", zap.String("field", f))
	}
	return nil
}

type tx struct {
	docstore.Buffer
	pgtx pgx.Tx
}

func (t *tx) Get(ctx context.Context, key docstore.Key, out any) (bool, error) {
	if err := t.CheckRead(key); err != nil {
		return false, err
	}
	return get(ctx, t.pgtx, key, out)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func get(ctx context.Context, q querier, key docstore.Key, out any) (bool, error) {
	var body []byte
	err := q.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		key.Collection, key.ID).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pgstore: get %s: %w", key, err)
	}
	if err := bson.UnmarshalExtJSON(body, false, out); err != nil {
		return false, fmt.Errorf("pgstore: decode %s: %w", key, err)
	}
	return true, nil
}

// RunTransaction implements docstore.Store.
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.runOnce(ctx, fn)
		if !isRetryable(err) {
			return err
		}
		s.log.Debug("retrying serializable transaction",
			zap.Int("attempt", attempt), zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return fmt.Errorf("%w: %v", docstore.ErrConflict, err)
}

func (s *Store) runOnce(ctx context.Context, fn docstore.TxFunc) error {
	pgtx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("pgstore: begin: %w", err)
	}
	defer pgtx.Rollback(context.Background()) //nolint:errcheck

	t := &tx{pgtx: pgtx}
	if err := fn(ctx, t); err != nil {
		return err
	}
	for _, w := range t.Writes() {
		if err := apply(ctx, pgtx, w); err != nil {
			return err
		}
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("pgstore: commit: %w", err)
	}
	return nil
}

func apply(ctx context.Context, pgtx pgx.Tx, w docstore.Write) error {
	body, err := bson.MarshalExtJSON(w.Doc, false, false)
	if err != nil {
		return fmt.Errorf("pgstore: encode %s: %w", w.Key, err)
	}
	switch w.Op {
	case docstore.OpCreate:
		tag, err := pgtx.Exec(ctx, `
INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)
ON CONFLICT (collection, id) DO NOTHING`, w.Key.Collection, w.Key.ID, body)
		if err != nil {
			return mapWriteErr(w.Key, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", docstore.ErrAlreadyExists, w.Key)
		}
	case docstore.OpSet:
		_, err := pgtx.Exec(ctx, `
INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)
ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body`, w.Key.Collection, w.Key.ID, body)
		if err != nil {
			return mapWriteErr(w.Key, err)
		}
	default:
		return fmt.Errorf("pgstore: unknown op %d for %s", w.Op, w.Key)
	}
	return nil
}

func mapWriteErr(key docstore.Key, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", docstore.ErrAlreadyExists, key)
	}
	return fmt.Errorf("pgstore: write %s: %w", key, err)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return true
		}
	}
	return false
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, key docstore.Key, out any) (bool, error) {
	return get(ctx, s.pool, key, out)
}

type document struct {
	id   string
	body []byte
}

func (d document) ID() string { return d.id }

func (d document) Decode(out any) error { return bson.UnmarshalExtJSON(d.body, false, out) }

// Find implements docstore.Store.
func (s *Store) Find(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, body FROM documents
WHERE collection = $1 AND body->>$2 = $3
ORDER BY id`, collection, field, value)
	if err != nil {
		return nil, fmt.Errorf("pgstore: find %s.%s: %w", collection, field, err)
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var d document
		if err := rows.Scan(&d.id, &d.body); err != nil {
			return nil, fmt.Errorf("pgstore: scan %s: %w", collection, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: find %s.%s: %w", collection, field, err)
	}
	return out, nil
}

// Ping implements docstore.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool, giving up when ctx ends first.
func (s *Store) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pool.Close()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
