package httpserver

import (
	"net/http"

	"github.com/arvos-io/expiryledger/internal/core/service"
	"github.com/arvos-io/expiryledger/internal/eventlog"
	"github.com/arvos-io/expiryledger/internal/server/httpserver/handler"
	"github.com/arvos-io/expiryledger/internal/telemetry/logger"
	"github.com/arvos-io/expiryledger/internal/telemetry/metric"
)

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	// Ledger executes all token operations and queries.
	Ledger *service.LedgerService

	// Auth authenticates admin requests.
	Auth *service.AuthService

	// Metrics is the telemetry registry; its handler serves /metrics.
	Metrics *metric.Registry

	// Events is the in-memory event buffer behind /admin/v1/events.
	// May be nil.
	Events *eventlog.MemorySink

	// Logger for request and error logging.
	Logger logger.Logger
}

// NewRouter builds the full route table.
//
// Three middleware stacks apply: operational endpoints get request IDs
// and panic recovery only, the public query surface adds metrics and
// access logging, and the admin surface adds API key authentication
// with an admin role requirement.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.Ledger, cfg.Events, cfg.Metrics, cfg.Logger)

	ops := []Middleware{RequestID(), Recover(cfg.Logger)}
	public := []Middleware{RequestID(), Recover(cfg.Logger), Metrics(cfg.Metrics), Logging(cfg.Logger)}
	admin := append(append([]Middleware{}, public...), AdminAuth(cfg.Auth))

	mux := http.NewServeMux()

	route := func(pattern string, hf http.HandlerFunc, stack []Middleware) {
		mux.Handle(pattern, Chain(hf, stack...))
	}

	// Operational endpoints.
	route("GET /health", h.Health, ops)
	route("GET /ready", h.Ready, ops)
	mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), ops...))

	// Public query surface.
	route("POST /v1/queries/balance-of", h.BalanceOf, public)
	route("POST /v1/queries/expiry-of", h.ExpiryOf, public)
	route("POST /v1/queries/token-metadata", h.TokenMetadata, public)
	route("POST /v1/queries/operator-of", h.OperatorOf, public)

	// Permanently disabled mutation surface. Routed without auth so
	// the stable Unauthorized error reaches every caller.
	route("POST /v1/transfers", h.Transfer, public)
	route("POST /v1/operators", h.UpdateOperator, public)

	// Admin surface.
	route("POST /v1/tokens", h.Register, admin)
	route("POST /v1/tokens/mint", h.Mint, admin)
	route("POST /v1/tokens/remove", h.Remove, admin)
	route("GET /admin/v1/status/summary", h.Status, admin)
	route("GET /admin/v1/events", h.Events, admin)
	route("POST /admin/v1/export", h.Export, admin)

	return mux
}
