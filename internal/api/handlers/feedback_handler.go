package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/zatekoja/storeguard/internal/application/services"
	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

const (
	feedbackRateLimit   = 5
	feedbackRateWindow  = time.Hour
	feedbackDedupWindow = 24 * time.Hour

	// feedbackLocalEntries caps the per-process limiter and deduper
	feedbackLocalEntries = 10000
)

// FeedbackService defines the feedback operations used by the handler.
type FeedbackService interface {
	Submit(ctx context.Context, in services.FeedbackInput) (*entities.Feedback, error)
	List(ctx context.Context, filter repositories.FeedbackFilter) (*services.Page[*entities.Feedback], error)
	Get(ctx context.Context, id string) (*entities.Feedback, error)
	Summary(ctx context.Context) (*services.FeedbackSummary, error)
	UpdateStatus(ctx context.Context, id, status string) (*entities.Feedback, error)
	Reply(ctx context.Context, id string, in services.ReplyInput) (*entities.FeedbackReply, error)
}

// FeedbackHandler handles feedback intake and triage.
type FeedbackHandler struct {
	service FeedbackService
	cache   providers.CacheProvider
	local   *localRateLimiter
	deduper *localDeduper
}

// NewFeedbackHandler creates a new feedback handler. Without a cache, rate
// limiting and duplicate detection are kept per process.
func NewFeedbackHandler(service FeedbackService, cache providers.CacheProvider) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		cache:   cache,
		local:   newLocalRateLimiter(),
		deduper: newLocalDeduper(),
	}
}

// SubmitFeedback handles POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var in services.FeedbackInput
	if !decodeJSON(w, r, &in) {
		return
	}

	ip := clientIP(r)
	allowed, retryAfter := h.allowRequest(r.Context(), "feedback:rate:"+ip)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	dupKey := "feedback:dup:" + feedbackFingerprint(in, ip)
	if h.isDuplicate(r.Context(), dupKey) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	feedback, err := h.service.Submit(r.Context(), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	// only accepted submissions count as seen
	h.rememberSubmission(r.Context(), dupKey)

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"status": "received",
		"id":     feedback.ID,
	})
}

// ListFeedback handles GET /api/feedback
func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pagination(r)
	page, err := h.service.List(r.Context(), repositories.FeedbackFilter{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// GetSummary handles GET /api/feedback/summary
func (h *FeedbackHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// GetFeedback handles GET /api/feedback/{id}
func (h *FeedbackHandler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	feedback, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, feedback)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/feedback/{id}/status
func (h *FeedbackHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	feedback, err := h.service.UpdateStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, feedback)
}

// Reply handles POST /api/feedback/{id}/reply
func (h *FeedbackHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var in services.ReplyInput
	if !decodeJSON(w, r, &in) {
		return
	}

	reply, err := h.service.Reply(r.Context(), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, reply)
}

func (h *FeedbackHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key)
	}

	state := rateLimitState{}
	if data, err := h.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= feedbackRateLimit {
		return false, feedbackRateWindow
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = h.cache.Set(ctx, key, data, int(feedbackRateWindow.Seconds()))
	return true, feedbackRateWindow
}

type rateLimitState struct {
	Count int `json:"count"`
}

func (h *FeedbackHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.deduper.seen(key)
	}
	exists, err := h.cache.Exists(ctx, key)
	return err == nil && exists
}

func (h *FeedbackHandler) rememberSubmission(ctx context.Context, key string) {
	if h.cache == nil {
		h.deduper.remember(key)
		return
	}
	_ = h.cache.Set(ctx, key, []byte("1"), int(feedbackDedupWindow.Seconds()))
}

// localRateLimiter counts requests per key in a bounded LRU. Entries expire
// with the window, so idle clients drop out on their own.
type localRateLimiter struct {
	mu     sync.Mutex
	states *expirable.LRU[string, *localRateState]
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: expirable.NewLRU[string, *localRateState](feedbackLocalEntries, nil, feedbackRateWindow),
	}
}

func (l *localRateLimiter) allow(key string) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states.Get(key)
	if !ok || now.After(state.resetAt) {
		state = &localRateState{resetAt: now.Add(feedbackRateWindow)}
		l.states.Add(key, state)
	}

	if state.count >= feedbackRateLimit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = feedbackRateWindow
		}
		return false, retryAfter
	}

	state.count++
	return true, feedbackRateWindow
}

type localDeduper struct {
	entries *expirable.LRU[string, struct{}]
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: expirable.NewLRU[string, struct{}](feedbackLocalEntries, nil, feedbackDedupWindow),
	}
}

func (d *localDeduper) seen(key string) bool {
	_, ok := d.entries.Get(key)
	return ok
}

func (d *localDeduper) remember(key string) {
	d.entries.Add(key, struct{}{})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// feedbackFingerprint identifies a resubmission of the same complaint
func feedbackFingerprint(in services.FeedbackInput, ip string) string {
	normalized := []string{
		strings.ToLower(strings.TrimSpace(in.UserEmail)),
		strings.TrimSpace(in.StoreID),
		normalizeText(in.Subject),
		normalizeText(in.Message),
		ip,
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func normalizeText(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
