package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the engines the handlers call.
type Services struct {
	Ledger     *services.LedgerService
	Budgets    *services.BudgetService
	Goals      *services.GoalService
	Recurring  *services.RecurringScheduler
	Allocation *services.AllocationService
	Analytics  *services.AnalyticsService
	Settings   *services.SettingsService
	Import     *services.ImportService
}

// Options tune the server's middleware.
type Options struct {
	APIKey             string
	CacheTTL           time.Duration
	CacheSize          int
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *log.Logger
}

type Server struct {
	http.Server

	svc      Services
	db       Pinger
	logger   *log.Logger
	started  time.Time
	cache    *responseCache
	cacheMgr *cache.Manager
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, db Pinger, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentHTTP})
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		svc:      svc,
		db:       db,
		logger:   opts.Logger,
		started:  time.Now(),
		cache:    newResponseCache(opts.CacheSize, opts.CacheTTL, ledgerVersion(svc.Analytics)),
		cacheMgr: cache.NewManager(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			opts.Logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	s.cacheMgr.Register(s.cache.lru)
	s.cacheMgr.StartCleanup(opts.CacheTTL)

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = invalidateOnWrite(s.cache, mux)
	h = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})(h)
	h = security.APIKeyMiddleware(opts.APIKey, "/api/", func(w http.ResponseWriter, r *http.Request) {
		UnauthorizedError().Write(w)
	})(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PATCH /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)
	mux.HandleFunc("GET /api/accounts/{id}/reconcile", s.handleReconcileAccount)
	mux.HandleFunc("POST /api/accounts/{id}/import", s.handleImportStatement)

	mux.HandleFunc("GET /api/transfers", s.handleListTransfers)
	mux.HandleFunc("POST /api/transfers", s.handleCreateTransfer)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("GET /api/categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/summary", s.handleTransactionSummary)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PATCH /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PATCH /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.handleContribute)
	mux.HandleFunc("GET /api/goals/{id}/history", s.handleGoalHistory)

	mux.HandleFunc("GET /api/recurring", s.handleListTemplates)
	mux.HandleFunc("POST /api/recurring", s.handleCreateTemplate)
	mux.HandleFunc("POST /api/recurring/process", s.handleProcessRecurring)
	mux.HandleFunc("GET /api/recurring/{id}", s.handleGetTemplate)
	mux.HandleFunc("PATCH /api/recurring/{id}", s.handleUpdateTemplate)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteTemplate)

	mux.HandleFunc("GET /api/allocation-rules", s.handleListRules)
	mux.HandleFunc("POST /api/allocation-rules", s.handleCreateRule)
	mux.HandleFunc("GET /api/allocation-rules/calculate", s.handleCalculateAllocation)
	mux.HandleFunc("GET /api/allocation-rules/{id}", s.handleGetRule)
	mux.HandleFunc("PATCH /api/allocation-rules/{id}", s.handleUpdateRule)
	mux.HandleFunc("DELETE /api/allocation-rules/{id}", s.handleDeleteRule)

	mux.HandleFunc("GET /api/analytics/overview", s.handleOverview)
	mux.HandleFunc("GET /api/analytics/by-category", s.handleByCategory)
	mux.HandleFunc("GET /api/analytics/trend", s.handleTrend)
	mux.HandleFunc("GET /api/analytics/daily-spending", s.handleDailySpending)

	mux.HandleFunc("GET /api/settings", s.handleListSettings)
	mux.HandleFunc("GET /api/settings/{key}", s.handleGetSetting)
	mux.HandleFunc("PUT /api/settings/{key}", s.handlePutSetting)
}

func ledgerVersion(a *services.AnalyticsService) VersionFunc {
	if a == nil {
		return nil
	}
	return a.LedgerVersion
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
