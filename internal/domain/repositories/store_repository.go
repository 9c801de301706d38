package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/storeguard/internal/domain/entities"
)

// StoreRepository defines the interface for store data operations
type StoreRepository interface {
	// Create persists a new store together with its cameras
	Create(ctx context.Context, store *entities.Store) error

	// GetByID retrieves a store with its cameras
	GetByID(ctx context.Context, id string) (*entities.Store, error)

	// GetByIDs retrieves multiple stores, preserving the order of ids
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Store, error)

	// Update replaces a store and its camera list
	Update(ctx context.Context, store *entities.Store) error

	// Delete removes a store and its cameras
	Delete(ctx context.Context, id string) error

	// List retrieves stores matching the filter and the total match count
	List(ctx context.Context, filter StoreFilter) ([]*entities.Store, int, error)

	// ListRecent retrieves the most recently created stores
	ListRecent(ctx context.Context, limit int) ([]*entities.Store, error)

	// Count counts stores matching the filter
	Count(ctx context.Context, filter StoreCountFilter) (int, error)
}

// StoreSearchRepository is a full-text index over stores (e.g. Typesense)
type StoreSearchRepository interface {
	// Search returns matching store ids, best match first, and the total hit count
	Search(ctx context.Context, filter StoreFilter) ([]string, int, error)

	// Index adds or replaces a store document
	Index(ctx context.Context, store *entities.Store) error

	// Delete removes a store from the index
	Delete(ctx context.Context, id string) error
}

// StoreFilter defines filters for listing stores. Search matches name,
// location and type; enum fields accept "" or "all" to disable them.
type StoreFilter struct {
	Search       string
	Status       string
	Type         string
	Subscription string
	Limit        int
	Offset       int
}

// StoreCountFilter narrows a store count
type StoreCountFilter struct {
	Status        entities.StoreStatus
	CreatedBefore *time.Time
}
