// Package postgres implements store.RecordStore on PostgreSQL. All record kinds
// share one table; each row carries a record as a JSONB payload.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Ensure RecordStore implements store.RecordStore
var _ store.RecordStore[struct{}] = (*RecordStore[struct{}])(nil)

// DBPool is the subset of *pgxpool.Pool used by the store. pgxmock satisfies it.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

const (
	lockKindSQL   = `SELECT pg_advisory_xact_lock(hashtext($1))`
	selectKindSQL = `SELECT payload FROM guestbook_records WHERE kind = $1 ORDER BY seq`
	insertSQL     = `INSERT INTO guestbook_records (kind, payload) VALUES ($1, $2)`
	truncateSQL   = `DELETE FROM guestbook_records
		WHERE kind = $1
		AND seq NOT IN (SELECT seq FROM guestbook_records WHERE kind = $1 ORDER BY seq DESC LIMIT $2)`
)

// RecordStore persists records of one kind in the guestbook_records table.
// Appends hold a transaction-scoped advisory lock keyed by kind, which
// serializes writers across every server instance sharing the database.
type RecordStore[T any] struct {
	pool DBPool
	kind store.Kind
	log  *zap.SugaredLogger
}

// NewRecordStore creates a postgres-backed record store for kind.
func NewRecordStore[T any](pool DBPool, kind store.Kind) *RecordStore[T] {
	return &RecordStore[T]{
		pool: pool,
		kind: kind,
		log:  logger.GetLogger().Named("pg-store").With("kind", string(kind)),
	}
}

func (s *RecordStore[T]) Kind() store.Kind {
	return s.kind
}

func (s *RecordStore[T]) Paths() []string {
	return nil
}

// Load returns all records of the store's kind in insertion order.
func (s *RecordStore[T]) Load(ctx context.Context) ([]T, error) {
	rows, err := s.pool.Query(ctx, selectKindSQL, string(s.kind))
	if err != nil {
		return nil, fmt.Errorf("query %s records: %w: %w", s.kind, store.ErrStoreIO, err)
	}
	return s.scan(rows)
}

// Append validates and inserts record inside a single transaction.
func (s *RecordStore[T]) Append(ctx context.Context, record T, policy store.AppendPolicy[T]) ([]T, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w: %w", store.ErrStoreIO, err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.log.Warnw("Failed to roll back append transaction", "error", rbErr)
			}
		}
	}()

	if _, err := tx.Exec(ctx, lockKindSQL, string(s.kind)); err != nil {
		return nil, fmt.Errorf("lock %s records: %w: %w", s.kind, store.ErrStoreIO, err)
	}

	rows, err := tx.Query(ctx, selectKindSQL, string(s.kind))
	if err != nil {
		return nil, fmt.Errorf("query %s records: %w: %w", s.kind, store.ErrStoreIO, err)
	}
	existing, err := s.scan(rows)
	if err != nil {
		return nil, err
	}

	if policy.Validate != nil {
		if err := policy.Validate(existing, record); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w: %w", s.kind, store.ErrStoreIO, err)
	}
	if _, err := tx.Exec(ctx, insertSQL, string(s.kind), payload); err != nil {
		return nil, fmt.Errorf("insert %s record: %w: %w", s.kind, store.ErrStoreIO, err)
	}

	if policy.MaxRecords > 0 && len(existing)+1 > policy.MaxRecords {
		if _, err := tx.Exec(ctx, truncateSQL, string(s.kind), policy.MaxRecords); err != nil {
			return nil, fmt.Errorf("truncate %s records: %w: %w", s.kind, store.ErrStoreIO, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s record: %w: %w", s.kind, store.ErrStoreIO, err)
	}
	committed = true

	return store.Truncate(append(existing, record), policy.MaxRecords), nil
}

func (s *RecordStore[T]) scan(rows pgx.Rows) ([]T, error) {
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s record: %w: %w", s.kind, store.ErrStoreIO, err)
		}
		var record T
		if err := json.Unmarshal(payload, &record); err != nil {
			s.log.Errorw("Stored payload is not valid JSON", "error", err)
			return nil, fmt.Errorf("decode %s record: %w: %w", s.kind, store.ErrCorruptStore, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s records: %w: %w", s.kind, store.ErrStoreIO, err)
	}
	return records, nil
}
