package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type PortfolioMetrics struct {
	RefreshTotal     *prometheus.CounterVec
	RefreshDuration  prometheus.Histogram
	LoansTotal       prometheus.Gauge
	OutstandingTotal prometheus.Gauge
	NPLRatio         prometheus.Gauge
}

type CacheMetrics struct {
	Lookups *prometheus.CounterVec
}

type EventMetrics struct {
	PublishedTotal *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_portfolio_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Portfolio = PortfolioMetrics{
		RefreshTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_portfolio_refresh_total",
				Help: "Total number of portfolio snapshot refreshes by outcome.",
			},
			[]string{"status"},
		),
		RefreshDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loan_portfolio_refresh_duration_seconds",
				Help:    "Histogram of portfolio snapshot rebuild latencies.",
				Buckets: prometheus.DefBuckets,
			},
		),
		LoansTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "loan_portfolio_loans",
				Help: "Number of loans in the current portfolio snapshot.",
			},
		),
		OutstandingTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "loan_portfolio_outstanding_amount",
				Help: "Total outstanding balance in the current portfolio snapshot.",
			},
		),
		NPLRatio: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "loan_portfolio_npl_ratio",
				Help: "Share of non-performing loans in the current portfolio snapshot, in percent.",
			},
		),
	}

	Cache = CacheMetrics{
		Lookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_portfolio_schedule_cache_lookups_total",
				Help: "Schedule cache lookups by result (hit, miss, error).",
			},
			[]string{"result"},
		),
	}

	Events = EventMetrics{
		PublishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_portfolio_events_published_total",
				Help: "Domain events published by routing key and outcome.",
			},
			[]string{"routing_key", "status"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordRefresh(status string, duration time.Duration) {
	Portfolio.RefreshTotal.WithLabelValues(status).Inc()
	Portfolio.RefreshDuration.Observe(duration.Seconds())
}

func SetPortfolioGauges(loans int, outstanding, nplRatio float64) {
	Portfolio.LoansTotal.Set(float64(loans))
	Portfolio.OutstandingTotal.Set(outstanding)
	Portfolio.NPLRatio.Set(nplRatio)
}

func RecordCacheLookup(result string) {
	Cache.Lookups.WithLabelValues(result).Inc()
}

func RecordEventPublished(routingKey, status string) {
	Events.PublishedTotal.WithLabelValues(routingKey, status).Inc()
}
