// Package memory provides in-process repositories backed by a single guarded
// dataset. Reads always return copies so callers never share state with the
// store of record.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/seed"
)

// DB is the dataset shared by the in-memory repositories. Deleting a store
// cascades to its alerts and detaches its payments, feedback and history,
// matching the Postgres foreign keys.
type DB struct {
	mu sync.RWMutex

	stores       map[string]*entities.Store
	storeOrder   []string
	payments     map[string]*entities.Payment
	paymentOrder []string
	transactions []entities.PaymentTransaction
	feedback     map[string]*entities.Feedback
	alerts       []*entities.Alert
}

// NewDB creates an empty dataset
func NewDB() *DB {
	return &DB{
		stores:   make(map[string]*entities.Store),
		payments: make(map[string]*entities.Payment),
		feedback: make(map[string]*entities.Feedback),
	}
}

// Stores returns the store repository view
func (db *DB) Stores() repositories.StoreRepository { return &StoreRepository{db: db} }

// Payments returns the payment repository view
func (db *DB) Payments() repositories.PaymentRepository { return &PaymentRepository{db: db} }

// Feedback returns the feedback repository view
func (db *DB) Feedback() repositories.FeedbackRepository { return &FeedbackRepository{db: db} }

// Alerts returns the alert repository view
func (db *DB) Alerts() repositories.AlertRepository { return &AlertRepository{db: db} }

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func sortAlertsNewestFirst(alerts []*entities.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].OccurredAt.After(alerts[j].OccurredAt)
	})
}

// NewSeededDB creates a dataset preloaded with the demo records
func NewSeededDB(ctx context.Context, now time.Time) (*DB, error) {
	db := NewDB()
	err := seed.Demo(now).Load(ctx, seed.Repositories{
		Stores:   db.Stores(),
		Payments: db.Payments(),
		Feedback: db.Feedback(),
		Alerts:   db.Alerts(),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}
