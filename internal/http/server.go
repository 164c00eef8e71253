// Package http serves the budget JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

const DefaultUserHeader = "X-User-ID"

// Pinger reports whether the data backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	UserHeader         string
	RateLimitPerMinute int
	RateLimitBurst     int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	Logger             *log.Logger
	// Now is the clock used for default periods.
	Now func() time.Time
}

type Server struct {
	http.Server

	budget  *services.BudgetService
	reports *services.ReportService
	store   Pinger

	userHeader string
	now        func() time.Time
	logger     *log.Logger

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	shutdownOnce sync.Once
}

type ctxKey string

const userIDKey ctxKey = "user_id"

func NewServer(addr string, budget *services.BudgetService, reports *services.ReportService, store Pinger, opts Options) *Server {
	if opts.UserHeader == "" {
		opts.UserHeader = DefaultUserHeader
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		budget:     budget,
		reports:    reports,
		store:      store,
		userHeader: opts.UserHeader,
		now:        opts.Now,
		logger:     opts.Logger.WithComponent(log.ComponentHTTP),
		detector:   security.NewDetector(opts.Logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Burst:             opts.RateLimitBurst,
		}),
	}

	api := http.NewServeMux()
	s.routes(api)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/api/", s.requireUser(api))

	var h http.Handler = root
	h = s.limiter.Middleware(s.rateLimitKey, ratelimit.Mutating, s.onRateLimited)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(opts.Logger, s.detector.ClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/budget/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/budget/categories", s.handleCreateCategory)
	mux.HandleFunc("PATCH /api/budget/categories/{id}/visibility", s.handleCategoryVisibility)
	mux.HandleFunc("PATCH /api/budget/categories/{id}/name", s.handleRenameCategory)
	mux.HandleFunc("DELETE /api/budget/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/budget/items", s.handleListItems)
	mux.HandleFunc("POST /api/budget/items", s.handleCreateItem)
	mux.HandleFunc("PATCH /api/budget/items/{id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /api/budget/items/{id}", s.handleDeleteItem)
	mux.HandleFunc("GET /api/budget/summary", s.handleSummary)

	mux.HandleFunc("GET /api/dashboard/transactions/recent", s.handleRecentTransactions)
	mux.HandleFunc("PUT /api/dashboard/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("GET /api/dashboard/account/summary", s.handleAccountSummary)
	mux.HandleFunc("GET /api/dashboard/insights", s.handleInsights)

	mux.HandleFunc("GET /api/statistics/income-expenses/{period}", s.handleIncomeExpenses)
	mux.HandleFunc("GET /api/statistics/categories/{period}", s.handleCategoryBreakdown)
	mux.HandleFunc("GET /api/statistics/recurring/{period}", s.handleRecurring)
	mux.HandleFunc("GET /api/statistics/summaries", s.handleMonthlySummaries)
	mux.HandleFunc("GET /api/statistics/overview", s.handleOverview)
}

// requireUser rejects requests without a user id and stores it in the
// context for the handlers.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(s.userHeader))
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, apiResponse{Success: false, Message: "Authentication required"})
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = log.AddFields(ctx, log.FieldUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// rateLimitKey buckets by user when the caller names one, else by address.
func (s *Server) rateLimitKey(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(s.userHeader)); u != "" {
		return "user:" + u
	}
	return "ip:" + s.detector.ClientIP(r)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, apiResponse{
		Success: false,
		Message: "Rate limit exceeded. Please try again later.",
		Code:    "RATE_LIMITED",
	})
}

// Shutdown stops the limiter cleanup and drains the HTTP server. Safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
