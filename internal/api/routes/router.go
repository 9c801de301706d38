package routes

import (
	"net/http"

	"github.com/zatekoja/storeguard/internal/api/handlers"
	"github.com/zatekoja/storeguard/internal/api/middleware"
	"github.com/zatekoja/storeguard/internal/infrastructure/observability"
	"github.com/zatekoja/storeguard/pkg/config"
)

// Handlers groups the route handlers. SSE is optional; without an event
// bus the stream route is not registered.
type Handlers struct {
	Stores    *handlers.StoreHandler
	Payments  *handlers.PaymentHandler
	Feedback  *handlers.FeedbackHandler
	Reports   *handlers.ReportHandler
	Dashboard *handlers.DashboardHandler
	SSE       *handlers.SSEHandler
}

// Router holds all route handlers
type Router struct {
	mux             *http.ServeMux
	handlers        Handlers
	cacheMiddleware *middleware.CacheMiddleware
	auth            config.AuthConfig
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware may be nil.
func NewRouter(
	h Handlers,
	cacheMiddleware *middleware.CacheMiddleware,
	auth config.AuthConfig,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		handlers:        h,
		cacheMiddleware: cacheMiddleware,
		auth:            auth,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Dashboard and shared tables
	r.mux.HandleFunc("GET /api/dashboard/overview", r.handlers.Dashboard.GetOverview)
	r.mux.HandleFunc("GET /api/badges", r.handlers.Dashboard.ListBadges)

	// Stores
	r.mux.HandleFunc("GET /api/stores", r.handlers.Stores.ListStores)
	r.mux.HandleFunc("POST /api/stores", r.handlers.Stores.CreateStore)
	r.mux.HandleFunc("GET /api/stores/{id}", r.handlers.Stores.GetStore)
	r.mux.HandleFunc("PUT /api/stores/{id}", r.handlers.Stores.UpdateStore)
	r.mux.HandleFunc("DELETE /api/stores/{id}", r.handlers.Stores.DeleteStore)
	r.mux.HandleFunc("POST /api/stores/{id}/cameras", r.handlers.Stores.AddCamera)
	r.mux.HandleFunc("DELETE /api/stores/{id}/cameras/{cameraId}", r.handlers.Stores.RemoveCamera)

	// Payments
	r.mux.HandleFunc("GET /api/payments", r.handlers.Payments.ListPayments)
	r.mux.HandleFunc("GET /api/payments/{id}", r.handlers.Payments.GetPayment)
	r.mux.HandleFunc("POST /api/payments/{id}/mark-paid", r.handlers.Payments.MarkPaid)
	r.mux.HandleFunc("PATCH /api/payments/{id}/subscription", r.handlers.Payments.UpdateSubscription)
	r.mux.HandleFunc("POST /api/payments/{id}/reminder", r.handlers.Payments.SendReminder)
	r.mux.HandleFunc("GET /api/plans", r.handlers.Payments.ListPlans)

	// Feedback
	r.mux.HandleFunc("POST /api/feedback", r.handlers.Feedback.SubmitFeedback)
	r.mux.HandleFunc("GET /api/feedback", r.handlers.Feedback.ListFeedback)
	r.mux.HandleFunc("GET /api/feedback/summary", r.handlers.Feedback.GetSummary)
	r.mux.HandleFunc("GET /api/feedback/{id}", r.handlers.Feedback.GetFeedback)
	r.mux.HandleFunc("PATCH /api/feedback/{id}/status", r.handlers.Feedback.UpdateStatus)
	r.mux.HandleFunc("POST /api/feedback/{id}/reply", r.handlers.Feedback.Reply)

	// Reports
	r.mux.HandleFunc("GET /api/reports/monthly", r.handlers.Reports.MonthlyReports)
	r.mux.HandleFunc("GET /api/reports/monthly/{month}/download", r.handlers.Reports.DownloadMonthlyReport)
	r.mux.HandleFunc("GET /api/reports/payment-history", r.handlers.Reports.PaymentHistory)
	r.mux.HandleFunc("POST /api/reports/generate", r.handlers.Reports.GenerateReport)

	// Live admin events
	if r.handlers.SSE != nil {
		r.mux.HandleFunc("GET /api/events/stream", r.handlers.SSE.StreamAdminEvents)
	}

	// Middleware, innermost first: cache, response optimization, auth,
	// logging, observability, CORS.
	var handler http.Handler = r.mux
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.AdminAuth(r.auth.AdminTokens, r.auth.Disabled, middleware.DefaultPublicRoutes)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
