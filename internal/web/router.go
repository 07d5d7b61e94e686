package web

import (
	"log/slog"
	"net/http"

	"github.com/jusunglee/romanji/internal/cache"
	"github.com/jusunglee/romanji/internal/db"
	"github.com/jusunglee/romanji/internal/health"
	"github.com/jusunglee/romanji/internal/romanji"
	"github.com/jusunglee/romanji/internal/transliteration"
	"github.com/jusunglee/romanji/internal/web/handlers"
	"github.com/jusunglee/romanji/internal/web/middleware"
)

type Router struct {
	conv        *romanji.Converter
	repo        db.Repository
	log         *slog.Logger
	rateLimiter *middleware.IPRateLimiter
}

// NewRouter wires the API. repo may be nil, in which case results are not
// cached and the listing endpoints return 404.
func NewRouter(conv *romanji.Converter, repo db.Repository, log *slog.Logger, rateLimiter *middleware.IPRateLimiter) *Router {
	return &Router{
		conv:        conv,
		repo:        repo,
		log:         log,
		rateLimiter: rateLimiter,
	}
}

func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	romanizeHandler := handlers.NewRomanizeHandler(
		cache.New(r.conv, r.repo, r.log),
		transliteration.New(r.conv),
		r.log,
	)
	cacheHandler := handlers.NewCacheHandler(r.repo, r.log)

	mux.Handle("GET /health", health.Handler(r.conv))

	mux.Handle("POST /api/v1/romanize",
		middleware.Chain(
			http.HandlerFunc(romanizeHandler.Romanize),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.RateLimit(r.rateLimiter),
		),
	)

	mux.Handle("POST /api/v1/romanize/sentence",
		middleware.Chain(
			http.HandlerFunc(romanizeHandler.Sentence),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
			middleware.RateLimit(r.rateLimiter),
		),
	)

	mux.Handle("GET /api/v1/romanizations",
		middleware.Chain(
			http.HandlerFunc(cacheHandler.ListRomanizations),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
		),
	)

	mux.Handle("GET /api/v1/misses",
		middleware.Chain(
			http.HandlerFunc(cacheHandler.ListMisses),
			middleware.PrometheusMetrics(),
			middleware.RequestLogger(r.log),
		),
	)

	return middleware.CORS(mux)
}
