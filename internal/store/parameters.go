package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Parameter is one row of _parameters or _parameter_history.
type Parameter struct {
	Key       string          `json:"key" db:"key"`
	Value     json.RawMessage `json:"value" db:"value"`
	UpdatedBy string          `json:"updated_by" db:"updated_by"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

const (
	selectParameterSQL = `SELECT key, value::text AS value, updated_by, COALESCE(updated_at, NOW()) AS updated_at
		FROM _parameters WHERE key = $1`
	upsertParameterSQL = `INSERT INTO _parameters (key, value, updated_by) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = NOW()`
	insertHistorySQL = `INSERT INTO _parameter_history (key, value, updated_by) VALUES ($1, $2, $3)`
	selectHistorySQL = `SELECT key, value::text AS value, updated_by, COALESCE(changed_at, NOW()) AS updated_at
		FROM _parameter_history WHERE key = $1 ORDER BY changed_at DESC, id DESC LIMIT $2`
)

// GetParameter returns the parameter stored under key, or ErrNotFound.
func (s *Store) GetParameter(ctx context.Context, key string) (*Parameter, error) {
	return getParameter(ctx, s.Pool, key)
}

func getParameter(ctx context.Context, q Querier, key string) (*Parameter, error) {
	rows, err := q.Query(ctx, selectParameterSQL, key)
	if err != nil {
		return nil, fmt.Errorf("get parameter %s: %w", key, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Parameter])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan parameter %s: %w", key, err)
	}
	return p, nil
}

// PutParameter upserts key and appends the new value to the history, in one
// transaction.
func (s *Store) PutParameter(ctx context.Context, key string, value json.RawMessage, updatedBy string) error {
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		return putParameter(ctx, tx, key, value, updatedBy)
	})
}

func putParameter(ctx context.Context, q Querier, key string, value json.RawMessage, updatedBy string) error {
	if _, err := q.Exec(ctx, upsertParameterSQL, key, string(value), updatedBy); err != nil {
		return fmt.Errorf("put parameter %s: %w", key, err)
	}
	if _, err := q.Exec(ctx, insertHistorySQL, key, string(value), updatedBy); err != nil {
		return fmt.Errorf("record history for %s: %w", key, err)
	}
	return nil
}

// ParameterHistory returns the latest limit versions of key, newest first.
func (s *Store) ParameterHistory(ctx context.Context, key string, limit int) ([]Parameter, error) {
	rows, err := s.Pool.Query(ctx, selectHistorySQL, key, limit)
	if err != nil {
		return nil, fmt.Errorf("parameter history %s: %w", key, err)
	}
	history, err := pgx.CollectRows(rows, pgx.RowToStructByName[Parameter])
	if err != nil {
		return nil, fmt.Errorf("scan parameter history %s: %w", key, err)
	}
	return history, nil
}
