package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/entities"
)

// subscriberBuffer is the per-subscriber queue length. A subscriber that
// falls this far behind misses events instead of blocking the publisher.
const subscriberBuffer = 100

// fanout tracks local subscriber channels per bus channel
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.AdminEvent]struct{}
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.AdminEvent]struct{})}
}

// add registers a new subscriber and returns it with the subscriber count
func (f *fanout) add(channel string) (chan *entities.AdminEvent, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.AdminEvent]struct{})
	}
	ch := make(chan *entities.AdminEvent, subscriberBuffer)
	f.subscribers[channel][ch] = struct{}{}
	return ch, len(f.subscribers[channel])
}

// remove closes one subscriber. It reports whether the channel has no
// subscribers left.
func (f *fanout) remove(channel string, ch chan *entities.AdminEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	subscribers, ok := f.subscribers[channel]
	if !ok {
		return false
	}
	if _, ok := subscribers[ch]; !ok {
		return false
	}
	delete(subscribers, ch)
	close(ch)

	if len(subscribers) == 0 {
		delete(f.subscribers, channel)
		return true
	}
	return false
}

// closeChannel closes every subscriber of a channel
func (f *fanout) closeChannel(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers[channel] {
		close(ch)
	}
	delete(f.subscribers, channel)
}

func (f *fanout) channels() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.subscribers))
	for channel := range f.subscribers {
		out = append(out, channel)
	}
	return out
}

// broadcast delivers an event to every subscriber without blocking
func (f *fanout) broadcast(channel string, event *entities.AdminEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers[channel] {
		select {
		case ch <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
}
