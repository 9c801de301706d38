package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
)

const sseHeartbeatInterval = 30 * time.Second

// SSEHandler streams admin events so open dashboards can refresh
type SSEHandler struct {
	eventBus  providers.EventBus
	clients   atomic.Int64
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{eventBus: eventBus, heartbeat: sseHeartbeatInterval}
}

// StreamAdminEvents handles GET /api/events/stream. An optional "types"
// query parameter restricts the stream to a comma separated list of event
// types, and a trailing ".*" matches a whole family such as "store.*".
func (h *SSEHandler) StreamAdminEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, err := h.eventBus.Subscribe(r.Context(), providers.EventChannelAdmin)
	if err != nil {
		log.Error().Err(err).Str("channel", providers.EventChannelAdmin).Msg("failed to subscribe to admin events")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.clients.Add(1)
	defer h.clients.Add(-1)

	filter := parseTypeFilter(r.URL.Query().Get("types"))
	h.sendEvent(w, "connected", map[string]interface{}{"timestamp": time.Now().UTC()})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now().UTC()})
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			if event == nil || !filter.matches(event.Type) {
				continue
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
		}
	}
}

// ClientCount returns the number of open streams
func (h *SSEHandler) ClientCount() int {
	return int(h.clients.Load())
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event")
		return
	}
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

type typeFilter []string

func parseTypeFilter(raw string) typeFilter {
	var f typeFilter
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			f = append(f, part)
		}
	}
	return f
}

// matches accepts everything when the filter is empty
func (f typeFilter) matches(t entities.AdminEventType) bool {
	if len(f) == 0 {
		return true
	}
	for _, want := range f {
		if prefix, ok := strings.CutSuffix(want, ".*"); ok {
			if strings.HasPrefix(string(t), prefix+".") {
				return true
			}
			continue
		}
		if string(t) == want {
			return true
		}
	}
	return false
}
