package memory

import (
	"context"
	"fmt"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
	"github.com/zatekoja/storeguard/pkg/filter"
)

// StoreRepository is the in-memory store repository
type StoreRepository struct {
	db *DB
}

var _ repositories.StoreRepository = (*StoreRepository)(nil)

// Create inserts a store. The id must be unique.
func (r *StoreRepository) Create(ctx context.Context, store *entities.Store) error {
	if store == nil {
		return apperrors.NewInternalError("store is nil", fmt.Errorf("store is nil"))
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.stores[store.ID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("store %s already exists", store.ID))
	}
	r.db.stores[store.ID] = store.Clone()
	r.db.storeOrder = append(r.db.storeOrder, store.ID)
	return nil
}

// GetByID retrieves a copy of a store
func (r *StoreRepository) GetByID(ctx context.Context, id string) (*entities.Store, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.stores[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("store not found: %s", id))
	}
	return s.Clone(), nil
}

// GetByIDs retrieves stores in the order of ids, skipping unknown ids
func (r *StoreRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Store, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*entities.Store, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.db.stores[id]; ok {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

// Update replaces a store. An empty NVR password keeps the stored one.
func (r *StoreRepository) Update(ctx context.Context, store *entities.Store) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.stores[store.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("store not found: %s", store.ID))
	}
	updated := store.Clone()
	if updated.NVR.LoginPassword == "" {
		updated.NVR.LoginPassword = existing.NVR.LoginPassword
	}
	r.db.stores[store.ID] = updated

	for _, p := range r.db.payments {
		if p.StoreID == store.ID {
			p.StoreName = store.Name
		}
	}
	return nil
}

// Delete removes a store, its alerts, and detaches billing and feedback
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.stores[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("store not found: %s", id))
	}
	delete(r.db.stores, id)
	r.db.storeOrder = removeID(r.db.storeOrder, id)

	alerts := r.db.alerts[:0]
	for _, a := range r.db.alerts {
		if a.StoreID != id {
			alerts = append(alerts, a)
		}
	}
	r.db.alerts = alerts

	for _, p := range r.db.payments {
		if p.StoreID == id {
			p.StoreID = ""
		}
	}
	for i := range r.db.transactions {
		if r.db.transactions[i].StoreID == id {
			r.db.transactions[i].StoreID = ""
		}
	}
	for _, f := range r.db.feedback {
		if f.StoreID == id {
			f.StoreID = ""
		}
	}
	return nil
}

// List filters stores in creation order
func (r *StoreRepository) List(ctx context.Context, f repositories.StoreFilter) ([]*entities.Store, int, error) {
	r.db.mu.RLock()
	all := make([]*entities.Store, 0, len(r.db.storeOrder))
	for _, id := range r.db.storeOrder {
		all = append(all, r.db.stores[id].Clone())
	}
	r.db.mu.RUnlock()

	matched := filter.Apply(all,
		filter.Search(f.Search,
			func(s *entities.Store) string { return s.Name },
			func(s *entities.Store) string { return s.Location },
			func(s *entities.Store) string { return s.Type.Label() },
		),
		filter.Enum(f.Status, func(s *entities.Store) string { return string(s.Status) }),
		filter.Enum(f.Type, func(s *entities.Store) string { return string(s.Type) }),
		filter.Enum(f.Subscription, func(s *entities.Store) string { return string(s.Subscription) }),
	)
	return filter.Paginate(matched, f.Limit, f.Offset), len(matched), nil
}

// ListRecent returns the newest stores first
func (r *StoreRepository) ListRecent(ctx context.Context, limit int) ([]*entities.Store, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*entities.Store
	for i := len(r.db.storeOrder) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, r.db.stores[r.db.storeOrder[i]].Clone())
	}
	return out, nil
}

// Count counts stores matching the filter
func (r *StoreRepository) Count(ctx context.Context, f repositories.StoreCountFilter) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n := 0
	for _, s := range r.db.stores {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.CreatedBefore != nil && !s.CreatedAt.Before(*f.CreatedBefore) {
			continue
		}
		n++
	}
	return n, nil
}
