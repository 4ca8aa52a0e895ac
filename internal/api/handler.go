// Package api serves the extraction and import endpoints over HTTP.
package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/postmeta/internal/core/domain"
	"github.com/lueurxax/postmeta/internal/core/ports"
	"github.com/lueurxax/postmeta/internal/extract"
	"github.com/lueurxax/postmeta/internal/platform/observability"
)

// Routes.
const (
	RouteFetchMetadata = "/fetch-metadata"
	RouteVKBatchFetch  = "/vk-batch-fetch"
	RouteNewsImport    = "/news-import"
	routeOther         = "other"
)

const (
	headerContentType  = "Content-Type"
	headerRequestID    = "X-Request-ID"
	headerAuthorize    = "Authorization"
	contentTypeJSON    = "application/json; charset=utf-8"
	corsAllowHeaders   = "authorization, x-client-info, apikey, content-type"
	corsAllowMethods   = "POST, OPTIONS"
	defaultBodyLimit   = 1 << 20
	rateLimitWindow    = time.Minute
	rateLimitBurstMult = 2
	maxTrackedClients  = 10000
)

const (
	logKeyRequestID = "request_id"
	logKeyRoute     = "route"
	logKeyURL       = "url"
	logKeyClient    = "client"
)

// Extractor produces post metadata for the fetch endpoints.
type Extractor interface {
	Run(ctx context.Context, rawURL string) (*domain.ExtractedPost, error)
	RunVKBatch(ctx context.Context, req extract.BatchRequest) (*extract.BatchResult, error)
}

// Options configures the Handler.
type Options struct {
	// AdminToken is the bearer token required by the import endpoint.
	// Empty disables the endpoint.
	AdminToken string
	// RatePerMinute bounds requests per client. Zero disables limiting.
	RatePerMinute int
	// BodyLimit caps request bodies in bytes.
	BodyLimit int64
}

// Handler routes API requests. Every response is JSON and carries CORS
// headers and a request id.
type Handler struct {
	extractor Extractor
	store     ports.PostStore
	opts      Options
	logger    *zerolog.Logger
	mux       *http.ServeMux

	limiters   map[string]*clientLimiter
	limitersMu sync.Mutex
	lastSweep  time.Time
	now        func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewHandler builds the API handler. store may be nil, in which case the
// import endpoint answers 503.
func NewHandler(extractor Extractor, store ports.PostStore, opts Options, logger *zerolog.Logger) *Handler {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = defaultBodyLimit
	}

	h := &Handler{
		extractor: extractor,
		store:     store,
		opts:      opts,
		logger:    logger,
		mux:       http.NewServeMux(),
		limiters:  make(map[string]*clientLimiter),
		now:       time.Now,
	}

	h.mux.HandleFunc(RouteFetchMetadata, h.handleFetchMetadata)
	h.mux.HandleFunc(RouteVKBatchFetch, h.handleVKBatch)
	h.mux.HandleFunc(RouteNewsImport, h.handleNewsImport)
	h.mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	route := routeLabel(r.URL.Path)

	requestID := strings.TrimSpace(r.Header.Get(headerRequestID))
	if requestID == "" {
		requestID = uuid.NewString()
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	defer func() {
		observability.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		observability.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	}()

	header := rec.Header()
	header.Set(headerRequestID, requestID)
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	header.Set("Access-Control-Allow-Methods", corsAllowMethods)

	if r.Method == http.MethodOptions {
		header.Set(headerContentType, "text/plain; charset=utf-8")
		rec.WriteHeader(http.StatusOK)
		_, _ = rec.Write([]byte("ok"))

		return
	}

	if r.Method != http.MethodPost {
		writeError(rec, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	client := clientIP(r)
	if !h.allowRequest(client) {
		h.logger.Warn().Str(logKeyClient, client).Str(logKeyRoute, route).Msg("rate limit exceeded")
		writeError(rec, http.StatusTooManyRequests, "Too many requests")

		return
	}

	logger := h.logger.With().Str(logKeyRequestID, requestID).Str(logKeyRoute, route).Logger()

	r.Body = http.MaxBytesReader(rec, r.Body, h.opts.BodyLimit)
	h.mux.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))
}

func (h *Handler) allowRequest(client string) bool {
	if h.opts.RatePerMinute <= 0 {
		return true
	}

	now := h.now()

	h.limitersMu.Lock()

	entry, ok := h.limiters[client]
	if !ok {
		h.evictIdleLocked(now)

		entry = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(rateLimitWindow/time.Duration(h.opts.RatePerMinute)), h.opts.RatePerMinute*rateLimitBurstMult),
		}
		h.limiters[client] = entry
	}

	entry.lastSeen = now

	h.limitersMu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// limiterIdleTTL is how long a limiter takes to refill its whole burst.
// An entry idle that long is indistinguishable from a new one.
func (h *Handler) limiterIdleTTL() time.Duration {
	return rateLimitWindow * rateLimitBurstMult
}

// evictIdleLocked drops refilled limiters at most once per TTL, or right away
// when the table is full. If every entry is still active, the least recently
// seen one makes room. Callers hold limitersMu.
func (h *Handler) evictIdleLocked(now time.Time) {
	ttl := h.limiterIdleTTL()
	full := len(h.limiters) >= maxTrackedClients

	if !full && now.Sub(h.lastSweep) < ttl {
		return
	}

	h.lastSweep = now

	for client, entry := range h.limiters {
		if now.Sub(entry.lastSeen) >= ttl {
			delete(h.limiters, client)
		}
	}

	if len(h.limiters) < maxTrackedClients {
		return
	}

	var (
		oldest     string
		oldestSeen time.Time
		found      bool
	)

	for client, entry := range h.limiters {
		if !found || entry.lastSeen.Before(oldestSeen) {
			oldest, oldestSeen, found = client, entry.lastSeen, true
		}
	}

	delete(h.limiters, oldest)
}

func routeLabel(path string) string {
	switch path {
	case RouteFetchMetadata, RouteVKBatchFetch, RouteNewsImport:
		return path
	default:
		return routeOther
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, _ := strings.Cut(xff, ","); strings.TrimSpace(first) != "" {
			return strings.TrimSpace(first)
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}

	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true

	return r.ResponseWriter.Write(b)
}
