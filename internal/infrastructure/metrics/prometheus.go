// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kronik"

var (
	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - cache_type: redis
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache_type"},
	)

	// CatalogRebuildsTotal tracks rebuilds of the global video catalog.
	// Labels:
	//   - trigger: scheduled, on_demand, stale
	//   - result: success, partial, error
	CatalogRebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_rebuilds_total",
			Help:      "Total number of catalog cache rebuilds",
		},
		[]string{"trigger", "result"},
	)

	// CatalogRebuildDuration observes how long a full catalog rebuild takes.
	CatalogRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_rebuild_duration_seconds",
			Help:      "Duration of catalog cache rebuilds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// EncodeJobsTotal tracks transcoding outcomes per quality preset.
	// Labels:
	//   - preset: 360p, 720p, 1080p, 2160p
	//   - result: success, error
	EncodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encode_jobs_total",
			Help:      "Total number of per-preset encode jobs",
		},
		[]string{"preset", "result"},
	)

	// SignedURLsTotal tracks presigned URL issuance.
	// Labels:
	//   - collection: videos, previews, bio
	//   - result: success, error
	SignedURLsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signed_urls_total",
			Help:      "Total number of presigned URLs issued",
		},
		[]string{"collection", "result"},
	)

	// DBQueriesTotal tracks database queries.
	// Labels:
	//   - query_type: select, insert, update, delete
	//   - table: video_views, video_reactions, subscriptions
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache type constants.
const (
	CacheTypeRedis = "redis"
)

// Catalog rebuild trigger constants.
const (
	CatalogTriggerOnDemand = "on_demand"
	CatalogTriggerStale    = "stale"
)

// Catalog rebuild result constants.
const (
	CatalogResultSuccess = "success"
	CatalogResultPartial = "partial"
	CatalogResultError   = "error"
)

// Encode / signed URL result constants.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
	DBQueryDelete = "delete"
)

// Table name constants.
const (
	TableVideoViews     = "video_views"
	TableVideoReactions = "video_reactions"
	TableSubscriptions  = "subscriptions"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
