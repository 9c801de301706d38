package events

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
)

// ErrBusClosed is returned when publishing to or subscribing on a closed bus
var ErrBusClosed = errors.New("event bus closed")

// MemoryEventBus delivers events within the process. It backs the memory
// storage driver, where no Redis is configured.
type MemoryEventBus struct {
	subs   *fanout
	closed atomic.Bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{subs: newFanout()}
}

// Publish hands the event to the current subscribers of channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.AdminEvent) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	b.subs.broadcast(channel, event)
	return nil
}

// Subscribe returns a channel closed when ctx ends or the bus closes
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.AdminEvent, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	ch, _ := b.subs.add(channel)
	go func() {
		<-ctx.Done()
		b.subs.remove(channel, ch)
	}()
	return ch, nil
}

// Unsubscribe closes every subscriber of channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.subs.closeChannel(channel)
	return nil
}

// Close closes all subscribers
func (b *MemoryEventBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	for _, channel := range b.subs.channels() {
		b.subs.closeChannel(channel)
	}
	return nil
}
