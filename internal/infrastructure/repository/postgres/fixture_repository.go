package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	qb "github.com/riskibarqy/fixture-insight/internal/platform/querybuilder"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const fixtureUpsertSuffix = `ON CONFLICT (id) DO UPDATE SET
	season_id = EXCLUDED.season_id,
	league_id = EXCLUDED.league_id,
	country_id = EXCLUDED.country_id,
	status = EXCLUDED.status,
	home_team_id = EXCLUDED.home_team_id,
	away_team_id = EXCLUDED.away_team_id,
	home_score = EXCLUDED.home_score,
	away_score = EXCLUDED.away_score,
	match_date = EXCLUDED.match_date,
	data = EXCLUDED.data,
	updated_at = EXCLUDED.updated_at`

type FixtureRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db, now: time.Now}
}

func (r *FixtureRepository) Upsert(ctx context.Context, item fixture.Fixture) error {
	now := r.now().UTC()
	query, args, err := qb.InsertModel("fixtures", fixtureUpsertModel{
		ID:         item.ID,
		SeasonID:   item.SeasonID,
		LeagueID:   item.LeagueID,
		CountryID:  item.CountryID,
		Status:     fixture.NormalizeStatus(item.Status),
		HomeTeamID: item.HomeTeamID,
		AwayTeamID: item.AwayTeamID,
		HomeScore:  nullableInt(item.HomeScore),
		AwayScore:  nullableInt(item.AwayScore),
		MatchDate:  nullableTime(item.MatchDate),
		Data:       string(item.Data),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, fixtureUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert fixture query: %w", err)
	}

	err = retryStatement(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return crerr.Wrapf(err, "upsert fixture id=%d", item.ID)
	}
	return nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, id int64) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureColumns).From("fixtures").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	err = retryStatement(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, crerr.Wrapf(err, "get fixture id=%d", id)
	}

	item, err := fixtureFromRow(row)
	if err != nil {
		return fixture.Fixture{}, false, err
	}
	return item, true, nil
}

// SavePayload replaces the derived payload of an existing fixture.
func (r *FixtureRepository) SavePayload(ctx context.Context, id int64, value payload.Payload) error {
	raw, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode payload fixture id=%d: %w", id, err)
	}

	now := r.now().UTC()
	query, args, err := qb.Update("fixtures").
		SetExpr("payload", "?::jsonb", string(raw)).
		Set("payload_updated_at", now).
		Set("updated_at", now).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save payload query: %w", err)
	}

	affected, err := execAffected(ctx, r.db, query, args)
	if err != nil {
		return crerr.Wrapf(err, "save payload fixture id=%d", id)
	}
	if affected == 0 {
		return fmt.Errorf("%w: fixture id=%d", usecase.ErrNotFound, id)
	}
	return nil
}

func (r *FixtureRepository) List(ctx context.Context, limit int) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns).From("fixtures").
		OrderBy("match_date DESC NULLS LAST", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures query: %w", err)
	}
	return r.selectFixtures(ctx, "list fixtures", query, args)
}

func (r *FixtureRepository) ListByLeague(ctx context.Context, leagueID int64) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns).From("fixtures").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("match_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures by league query: %w", err)
	}
	return r.selectFixtures(ctx, "list fixtures by league", query, args)
}

func (r *FixtureRepository) selectFixtures(ctx context.Context, op, query string, args []any) ([]fixture.Fixture, error) {
	var rows []fixtureTableModel
	err := retryStatement(ctx, func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, crerr.Wrap(err, op)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		item, err := fixtureFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func fixtureFromRow(row fixtureTableModel) (fixture.Fixture, error) {
	item := fixture.Fixture{
		ID:               row.ID,
		SeasonID:         row.SeasonID,
		LeagueID:         row.LeagueID,
		CountryID:        row.CountryID,
		Status:           row.Status,
		HomeTeamID:       row.HomeTeamID,
		AwayTeamID:       row.AwayTeamID,
		HomeScore:        intFromNull(row.HomeScore),
		AwayScore:        intFromNull(row.AwayScore),
		MatchDate:        timeFromNull(row.MatchDate),
		Data:             json.RawMessage(row.Data),
		PayloadUpdatedAt: timeFromNull(row.PayloadUpdatedAt),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if len(row.Payload) > 0 {
		var decoded payload.Payload
		if err := sonic.Unmarshal(row.Payload, &decoded); err != nil {
			return fixture.Fixture{}, fmt.Errorf("decode payload fixture id=%d: %w", row.ID, err)
		}
		item.Payload = &decoded
	}
	return item, nil
}
