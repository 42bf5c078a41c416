package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	sonic "github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

const referenceBatchSize = 200

type ReferenceService struct {
	provider ReferenceProvider
	repo     reference.Repository
	logger   *logging.Logger
	workers  int
}

func NewReferenceService(provider ReferenceProvider, repo reference.Repository, logger *logging.Logger, workers int) *ReferenceService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	return &ReferenceService{provider: provider, repo: repo, logger: logger, workers: workers}
}

// Sync refreshes one kind of reference data from upstream and returns
// the number of stored entities. Records without an id are skipped.
func (s *ReferenceService) Sync(ctx context.Context, kind reference.Kind) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "ReferenceService", "Sync")
	defer span.End()

	records, err := s.provider.FetchReference(ctx, kind)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", kind, err)
	}
	entities := projectEntities(kind, records)
	if skipped := len(records) - len(entities); skipped > 0 {
		s.logger.WarnContext(ctx, "skipped reference records without id", "kind", kind, "skipped", skipped)
	}
	if len(entities) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		stored  atomic.Int64
		errMu   sync.Mutex
		errs    []error
		batches sync.WaitGroup
	)
	for start := 0; start < len(entities); start += referenceBatchSize {
		batch := entities[start:min(start+referenceBatchSize, len(entities))]
		batches.Add(1)
		if err := pool.Submit(func() {
			defer batches.Done()
			n, err := s.repo.UpsertMany(ctx, batch)
			if err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				return
			}
			stored.Add(int64(n))
		}); err != nil {
			batches.Done()
			errMu.Lock()
			errs = append(errs, err)
			errMu.Unlock()
		}
	}
	batches.Wait()

	if len(errs) > 0 {
		return int(stored.Load()), fmt.Errorf("store %s: %d of %d batches failed: %w", kind, len(errs), (len(entities)+referenceBatchSize-1)/referenceBatchSize, errs[0])
	}
	s.logger.InfoContext(ctx, "reference data synced", "kind", kind, "stored", stored.Load())
	return int(stored.Load()), nil
}

func (s *ReferenceService) List(ctx context.Context, kind reference.Kind) ([]reference.Entity, error) {
	return s.repo.List(ctx, kind, 0)
}

// LeaguesByCountry reads leagues for a country straight from upstream.
func (s *ReferenceService) LeaguesByCountry(ctx context.Context, countryID int64) ([]reference.Entity, error) {
	if countryID <= 0 {
		return nil, fmt.Errorf("%w: country id must be greater than zero", ErrInvalidInput)
	}
	records, err := s.provider.FetchLeaguesByCountry(ctx, countryID)
	if err != nil {
		return nil, fmt.Errorf("fetch leagues country_id=%d: %w", countryID, err)
	}
	return projectEntities(reference.KindLeague, records), nil
}

type referenceRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	CommonName  string `json:"common_name"`
	ContinentID int64  `json:"continent_id"`
	CountryID   int64  `json:"country_id"`
}

func projectEntities(kind reference.Kind, records []ExternalRecord) []reference.Entity {
	out := make([]reference.Entity, 0, len(records))
	for _, record := range records {
		var rec referenceRecord
		if err := sonic.Unmarshal(record.Body, &rec); err != nil || rec.ID <= 0 {
			continue
		}
		parent := rec.CountryID
		if kind.ParentKey() == "continent_id" {
			parent = rec.ContinentID
		}
		out = append(out, reference.Entity{
			Kind:     kind,
			ID:       rec.ID,
			Name:     firstNonEmpty(rec.DisplayName, rec.Name, rec.CommonName),
			ParentID: parent,
			Data:     json.RawMessage(append([]byte(nil), record.Body...)),
		})
	}
	return out
}
