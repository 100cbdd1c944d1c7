package api

import (
	"log/slog"
	"net/http"
	"time"

	"loan-portfolio/internal/api/handler"
	mw "loan-portfolio/internal/api/middleware"
	"loan-portfolio/internal/config"
	"loan-portfolio/internal/domain/borrower"
	"loan-portfolio/internal/domain/loan"

	_ "loan-portfolio/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Services groups what the HTTP layer reads from.
type Services struct {
	Loans     loan.LoanService
	Borrowers borrower.BorrowerService
	Snapshots handler.SnapshotReader
	Refresher handler.Refresher
}

// Router is the configured HTTP handler plus the resources it owns.
type Router struct {
	*chi.Mux
	rateLimiter *mw.RateLimiterMiddleware
}

// Close releases background resources held by middleware.
func (r *Router) Close() {
	r.rateLimiter.Close()
}

func SetupRouter(svc Services, cfg *config.Config, logger *slog.Logger) *Router {
	router := &Router{
		Mux:         chi.NewRouter(),
		rateLimiter: mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger),
	}

	setupMiddleware(router, logger)
	setupMetricsEndpoint(router.Mux, cfg, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if _, err := svc.Snapshots.Current(); err != nil {
			status = "warming_up"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"` + status + `"}`))
	})
	setupSwaggerEndpoint(router.Mux, logger)

	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})

	router.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		setupLoanRoutes(r, svc, logger)
		setupBorrowerRoutes(r, svc, logger)
		setupPortfolioRoutes(r, svc, logger)
		setupLedgerRoutes(r, svc, logger)
	})

	return router
}

func setupMiddleware(router *Router, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(router.rateLimiter.Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupLoanRoutes(r chi.Router, svc Services, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc.Loans, logger)
	r.Route("/loans", func(r chi.Router) {
		r.Get("/", h.ListLoans)
		r.Get("/overdue", h.ListOverdueLoans)
		r.Get("/{loanID}", h.GetLoan)
		r.Get("/{loanID}/schedule", h.GetLoanSchedule)
	})
}

func setupBorrowerRoutes(r chi.Router, svc Services, logger *slog.Logger) {
	h := handler.NewBorrowerHandler(svc.Borrowers, svc.Snapshots, logger)
	r.Route("/borrowers", func(r chi.Router) {
		r.Get("/", h.ListBorrowers)
		r.Get("/{borrowerID}", h.GetBorrower)
		r.Get("/{borrowerID}/rollup", h.GetBorrowerRollup)
	})
}

func setupPortfolioRoutes(r chi.Router, svc Services, logger *slog.Logger) {
	h := handler.NewPortfolioHandler(svc.Snapshots, svc.Refresher, logger)
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/summary", h.GetSummary)
		r.Get("/borrowers", h.ListBorrowerRollups)
		r.Get("/products", h.ListProductRollups)
		r.Get("/delinquency", h.GetDelinquency)
		r.Post("/refresh", h.Refresh)
	})
}

func setupLedgerRoutes(r chi.Router, svc Services, logger *slog.Logger) {
	h := handler.NewLedgerHandler(svc.Snapshots, logger)
	r.Route("/ledger", func(r chi.Router) {
		r.Get("/", h.GetLedger)
		r.Get("/revenue", h.GetRevenue)
	})
}
