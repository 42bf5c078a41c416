package fixture

import (
	"context"

	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
)

// Repository persists fixtures keyed by provider id.
type Repository interface {
	// Upsert inserts or replaces the scalar fields and raw data of f.
	// An existing payload is left untouched.
	Upsert(ctx context.Context, f Fixture) error
	GetByID(ctx context.Context, id int64) (Fixture, bool, error)
	// SavePayload overwrites the derived payload. A missing fixture
	// yields an error matching usecase.ErrNotFound.
	SavePayload(ctx context.Context, id int64, p payload.Payload) error
	List(ctx context.Context, limit int) ([]Fixture, error)
	ListByLeague(ctx context.Context, leagueID int64) ([]Fixture, error)
}
