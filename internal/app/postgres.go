package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	maxTracedQueryLength = 512
	postgresPingTimeout  = 5 * time.Second
)

// postgresTarget is DB_URL resolved into the driver DSN plus the database
// name reported on spans and logs.
type postgresTarget struct {
	dsn  string
	name string
}

func newPostgresTarget(rawURL string, disablePreparedBinary bool) postgresTarget {
	raw := strings.TrimSpace(rawURL)
	target := postgresTarget{dsn: raw}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		target.name = keywordDSNValue(raw, "dbname")
		return target
	}

	target.name = strings.TrimPrefix(parsed.Path, "/")
	if disablePreparedBinary {
		query := parsed.Query()
		if !query.Has("disable_prepared_binary_result") {
			query.Set("disable_prepared_binary_result", "yes")
			parsed.RawQuery = query.Encode()
			target.dsn = parsed.String()
		}
	}
	return target
}

func (t postgresTarget) open(ctx context.Context) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", t.dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(t.name),
		otelsql.WithQueryFormatter(traceableQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, postgresPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres database=%s: %w", t.name, err)
	}
	return db, nil
}

// keywordDSNValue reads key from a "host=... dbname=..." style DSN.
func keywordDSNValue(dsn, key string) string {
	prefix := key + "="
	for _, token := range strings.Fields(dsn) {
		if value, ok := strings.CutPrefix(token, prefix); ok {
			return strings.Trim(value, `"'`)
		}
	}
	return ""
}

// traceableQuery collapses whitespace so multi-line SQL fits one span
// attribute, truncated to maxTracedQueryLength.
func traceableQuery(query string) string {
	collapsed := strings.Join(strings.Fields(query), " ")
	if len(collapsed) <= maxTracedQueryLength {
		return collapsed
	}
	return collapsed[:maxTracedQueryLength] + "..."
}
