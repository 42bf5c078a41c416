package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"
)

func isNotFound(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

// isBindParameterMismatch matches the error pgbouncer-style poolers
// surface when a pooled connection reuses another session's statement.
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "bind message supplies") && strings.Contains(text, "prepared statement")
}

func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "unnamed prepared statement does not exist") ||
		(strings.Contains(text, "prepared statement") && strings.Contains(text, "26000"))
}

// retryStatement runs fn once more when the first attempt hit a pooled
// prepared-statement mismatch.
func retryStatement(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if isBindParameterMismatch(err) || isUnnamedPreparedStatementMissing(err) {
		return fn(ctx)
	}
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execAffected runs a write through retryStatement and reports rows affected.
func execAffected(ctx context.Context, db execer, query string, args []any) (int64, error) {
	var affected int64
	err := retryStatement(ctx, func(ctx context.Context) error {
		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	out := int(v.Int64)
	return &out
}

func timeFromNull(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	out := v.Time.UTC()
	return &out
}

func nullableTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v.UTC(), Valid: true}
}
