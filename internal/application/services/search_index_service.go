package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

// ReindexBatchSize is how many stores each list page feeds the workers
const ReindexBatchSize = 100

// ReindexSummary reports the outcome of a full reindex
type ReindexSummary struct {
	TotalProcessed int
	SuccessCount   int
	FailureCount   int
}

// SearchIndexService rebuilds the store search index from the store of record
type SearchIndexService struct {
	stores      repositories.StoreRepository
	index       repositories.StoreSearchRepository
	workerCount int
}

// NewSearchIndexService creates a new search index service
func NewSearchIndexService(stores repositories.StoreRepository, index repositories.StoreSearchRepository, workers int) *SearchIndexService {
	if workers <= 0 {
		workers = 1
	}
	return &SearchIndexService{stores: stores, index: index, workerCount: workers}
}

// ReindexAll pages through every store and upserts it into the index.
// Individual failures are counted, not returned.
func (s *SearchIndexService) ReindexAll(ctx context.Context) (*ReindexSummary, error) {
	var processed, success, failure int64

	storeChan := make(chan *entities.Store, ReindexBatchSize)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for store := range storeChan {
				err := s.index.Index(ctx, store)
				atomic.AddInt64(&processed, 1)
				if err != nil {
					atomic.AddInt64(&failure, 1)
					log.Warn().Err(err).Str("store_id", store.ID).Msg("failed to index store")
					continue
				}
				atomic.AddInt64(&success, 1)
			}
		}()
	}

	produce := func() error {
		offset := 0
		for {
			stores, _, err := s.stores.List(ctx, repositories.StoreFilter{Limit: ReindexBatchSize, Offset: offset})
			if err != nil {
				return fmt.Errorf("failed to list stores for reindex: %w", err)
			}
			for _, store := range stores {
				select {
				case storeChan <- store:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if len(stores) < ReindexBatchSize {
				return nil
			}
			offset += len(stores)
		}
	}

	err := produce()
	close(storeChan)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	summary := &ReindexSummary{
		TotalProcessed: int(processed),
		SuccessCount:   int(success),
		FailureCount:   int(failure),
	}
	log.Info().
		Int("processed", summary.TotalProcessed).
		Int("failed", summary.FailureCount).
		Msg("store search index rebuilt")
	return summary, nil
}
