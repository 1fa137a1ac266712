package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mHTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtiles_http_requests_total",
		Help: "Total HTTP requests handled, by route and status class.",
	}, []string{"route", "status"})

	mAccessChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtiles_access_checks_total",
		Help: "Total authorization decisions, by verdict.",
	}, []string{"verdict"})

	mBodyCacheRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtiles_body_cache_requests_total",
		Help: "Total body cache lookups.",
	})
	mBodyCacheHitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtiles_body_cache_hits_total",
		Help: "Total body cache hits.",
	})
	mBodyCacheMissTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtiles_body_cache_miss_total",
		Help: "Total body cache misses.",
	})

	mBodyCacheBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtiles_body_cache_bytes_total",
		Help: "Total response bytes served.",
	})
	mBodyCacheHitBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtiles_body_cache_hit_bytes_total",
		Help: "Response bytes served from the in-memory body cache.",
	})
	mBodyCacheMissBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtiles_body_cache_miss_bytes_total",
		Help: "Response bytes served directly from disk.",
	})
)
