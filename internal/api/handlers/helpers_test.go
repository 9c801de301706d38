package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zatekoja/storeguard/internal/adapters/memory"
	"github.com/zatekoja/storeguard/internal/application/services"
	"github.com/zatekoja/storeguard/internal/domain/providers"
	"github.com/zatekoja/storeguard/internal/seed"
	"github.com/zatekoja/storeguard/pkg/config"
)

var (
	downtownID = seed.StableID("store", "downtown-electronics")
	jewelryID  = seed.StableID("store", "jewelry-store-premium")

	downtownPaymentID = seed.StableID("payment", "downtown-electronics")
	jewelryPaymentID  = seed.StableID("payment", "jewelry-store-premium")

	cameraIssueID = seed.StableID("feedback", "1")
	resolvedID    = seed.StableID("feedback", "3")
)

// stubSender records outgoing mail
type stubSender struct {
	mu   sync.Mutex
	sent []providers.ReplyMessage
	err  error
}

func (s *stubSender) Send(ctx context.Context, msg providers.ReplyMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type testServices struct {
	db        *memory.DB
	sender    *stubSender
	stores    *services.StoreService
	payments  *services.PaymentService
	feedback  *services.FeedbackService
	reports   *services.ReportService
	dashboard *services.DashboardService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	db, err := memory.NewSeededDB(context.Background(), time.Now())
	require.NoError(t, err)

	sender := &stubSender{}
	return &testServices{
		db:        db,
		sender:    sender,
		stores:    services.NewStoreService(db.Stores(), db.Payments(), db.Alerts(), nil, nil),
		payments:  services.NewPaymentService(db.Payments(), db.Stores(), sender, nil),
		feedback:  services.NewFeedbackService(db.Feedback(), db.Stores(), sender, nil, nil),
		reports:   services.NewReportService(db.Payments(), db.Stores(), nil, nil, config.ReportsConfig{}),
		dashboard: services.NewDashboardService(db.Stores(), db.Feedback(), db.Alerts()),
	}
}

// do runs one request against a handler func registered under pattern so
// that path values resolve the way they do in the router
func do(t *testing.T, pattern string, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}
