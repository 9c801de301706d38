package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/adapters/memory"
	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/seed"
)

var testNow = time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)

var (
	downtownID = seed.StableID("store", "downtown-electronics")
	mallID     = seed.StableID("store", "mall-security-center")
	retailID   = seed.StableID("store", "retail-chain-store-5")
	jewelryID  = seed.StableID("store", "jewelry-store-premium")
)

func fixedClock() time.Time { return testNow }

func newTestDB(t *testing.T) *memory.DB {
	t.Helper()
	db, err := memory.NewSeededDB(context.Background(), testNow)
	require.NoError(t, err)
	return db
}

// recordingBus keeps every published event
type recordingBus struct {
	mu     sync.Mutex
	events []*entities.AdminEvent
	err    error
}

func (b *recordingBus) Publish(ctx context.Context, channel string, event *entities.AdminEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AdminEvent, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) types() []entities.AdminEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.AdminEventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

func (b *recordingBus) last() *entities.AdminEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	return b.events[len(b.events)-1]
}

// recordingSender keeps every delivered message and fails with err when set
type recordingSender struct {
	mu   sync.Mutex
	sent []providers.ReplyMessage
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg providers.ReplyMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

// MockStoreSearch is a testify mock of the store search index
type MockStoreSearch struct {
	mock.Mock
}

func (m *MockStoreSearch) Search(ctx context.Context, filter repositories.StoreFilter) ([]string, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]string), args.Int(1), args.Error(2)
}

func (m *MockStoreSearch) Index(ctx context.Context, store *entities.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *MockStoreSearch) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
