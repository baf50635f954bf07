package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrap_products_created_total",
		Help: "Total number of products listed",
	})

	ProductsSoldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrap_products_sold_total",
		Help: "Total number of products marked sold",
	})

	ProductsAvailableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrap_products_available_total",
		Help: "Total number of sales reverted to available",
	})

	ProductsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrap_products_deleted_total",
		Help: "Total number of products deleted",
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrap_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	AccessDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrap_access_denied_total",
		Help: "Policy denials by operation and reason",
	}, []string{"operation", "reason"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
