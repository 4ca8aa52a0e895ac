package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by the counters below.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusFallback = "fallback"
)

var (
	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postmeta_fetch_requests_total",
		Help: "Outbound page fetches by HTTP status code",
	}, []string{"status"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postmeta_fetch_duration_seconds",
		Help:    "Duration of outbound page fetches",
		Buckets: prometheus.DefBuckets,
	})

	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postmeta_extractions_total",
		Help: "Metadata extractions by source and outcome",
	}, []string{"source", "status"})

	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postmeta_extraction_duration_seconds",
		Help:    "End-to-end extraction time per source",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"source"})

	VKAPIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postmeta_vk_api_requests_total",
		Help: "VK API calls by method and outcome",
	}, []string{"method", "status"})

	MediaItemsCollected = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postmeta_media_items_collected",
		Help:    "Number of media items in a normalized post",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 15},
	})

	BatchItemsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postmeta_vk_batch_items_returned",
		Help:    "Number of items produced by a VK batch fetch",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postmeta_http_requests_total",
		Help: "Inbound API requests by route and status code",
	}, []string{"route", "code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postmeta_http_request_duration_seconds",
		Help:    "Inbound API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postmeta_news_imports_total",
		Help: "Imported news posts by action",
	}, []string{"action"})
)
