package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	qb "github.com/riskibarqy/fixture-insight/internal/platform/querybuilder"
)

const referenceUpsertSuffix = `ON CONFLICT (kind, id) DO UPDATE SET
	name = EXCLUDED.name,
	parent_id = EXCLUDED.parent_id,
	data = EXCLUDED.data,
	updated_at = EXCLUDED.updated_at`

type referenceTableModel struct {
	Kind      string    `db:"kind"`
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	ParentID  int64     `db:"parent_id"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

type ReferenceRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db, now: time.Now}
}

// UpsertMany writes items in one statement. Repeated (kind, id) pairs
// keep the last item.
func (r *ReferenceRepository) UpsertMany(ctx context.Context, items []reference.Entity) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	now := r.now().UTC()
	index := make(map[string]int, len(items))
	rows := make([]referenceTableModel, 0, len(items))
	for _, item := range items {
		row := referenceTableModel{
			Kind:      string(item.Kind),
			ID:        item.ID,
			Name:      item.Name,
			ParentID:  item.ParentID,
			Data:      string(item.Data),
			UpdatedAt: now,
		}
		if row.Data == "" {
			row.Data = "{}"
		}
		key := fmt.Sprintf("%s:%d", row.Kind, row.ID)
		if at, ok := index[key]; ok {
			rows[at] = row
			continue
		}
		index[key] = len(rows)
		rows = append(rows, row)
	}

	query, args, err := qb.InsertModels("reference_entities", rows, referenceUpsertSuffix)
	if err != nil {
		return 0, fmt.Errorf("build upsert reference query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return 0, crerr.Wrapf(err, "upsert %d reference entities", len(rows))
	}
	return len(rows), nil
}

// List returns entities of kind ordered by name. parentID 0 disables the parent filter.
func (r *ReferenceRepository) List(ctx context.Context, kind reference.Kind, parentID int64) ([]reference.Entity, error) {
	conds := []qb.Condition{qb.Eq("kind", string(kind))}
	if parentID > 0 {
		conds = append(conds, qb.Eq("parent_id", parentID))
	}
	query, args, err := qb.Select("kind", "id", "name", "parent_id", "data", "updated_at").
		From("reference_entities").
		Where(conds...).
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list reference query: %w", err)
	}

	var rows []referenceTableModel
	err = retryStatement(ctx, func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, crerr.Wrapf(err, "list %s entities", kind)
	}

	out := make([]reference.Entity, 0, len(rows))
	for _, row := range rows {
		out = append(out, entityFromRow(row))
	}
	return out, nil
}

func (r *ReferenceRepository) Get(ctx context.Context, kind reference.Kind, id int64) (reference.Entity, bool, error) {
	query, args, err := qb.Select("kind", "id", "name", "parent_id", "data", "updated_at").
		From("reference_entities").
		Where(qb.Eq("kind", string(kind)), qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return reference.Entity{}, false, fmt.Errorf("build get reference query: %w", err)
	}

	var row referenceTableModel
	err = retryStatement(ctx, func(ctx context.Context) error {
		return r.db.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		if isNotFound(err) {
			return reference.Entity{}, false, nil
		}
		return reference.Entity{}, false, crerr.Wrapf(err, "get %s id=%d", kind, id)
	}
	return entityFromRow(row), true, nil
}

func entityFromRow(row referenceTableModel) reference.Entity {
	return reference.Entity{
		Kind:      reference.Kind(row.Kind),
		ID:        row.ID,
		Name:      row.Name,
		ParentID:  row.ParentID,
		Data:      json.RawMessage(row.Data),
		UpdatedAt: row.UpdatedAt,
	}
}
