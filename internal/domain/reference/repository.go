package reference

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Entity) (int, error)
	// List returns entities of kind; parentID > 0 narrows to one parent.
	List(ctx context.Context, kind Kind, parentID int64) ([]Entity, error)
	Get(ctx context.Context, kind Kind, id int64) (Entity, bool, error)
}
