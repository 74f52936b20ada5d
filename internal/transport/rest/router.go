package rest

import (
	"net/http"

	"github.com/rentstack/assettrack-backend/internal/auth"
	"github.com/rentstack/assettrack-backend/internal/transport/middleware"
)

// RouterDeps bundles the handlers and middleware collaborators needed to
// build the HTTP routing table.
type RouterDeps struct {
	Health    *HealthHandler
	Inventory *InventoryHandler
	RFID      *RFIDHandler
	Products  *ProductsHandler

	RateLimiter         *RateLimiterMiddleware
	IngestRatePerMinute int
}

// RateLimiterMiddleware aliases the middleware limiter so callers outside
// the transport layer only wire one package.
type RateLimiterMiddleware = middleware.RateLimiter

// NewRouter builds the full routing table under /api/v1 plus the health
// probes. Permission middleware is applied per route: reads require the
// matching read permission, mutations the write permission, and detection
// intake the ingest permission plus rate limiting.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Probes are unauthenticated.
	mux.HandleFunc("GET /health", deps.Health.Health)
	mux.HandleFunc("GET /health/live", deps.Health.Live)
	mux.HandleFunc("GET /ready", deps.Health.Ready)

	invRead := middleware.RequirePermission(auth.PermInventoryRead)
	invWrite := middleware.RequirePermission(auth.PermInventoryWrite)
	rfidRead := middleware.RequirePermission(auth.PermRFIDRead)
	rfidWrite := middleware.RequirePermission(auth.PermRFIDWrite)
	ingest := middleware.Chain(
		middleware.RequirePermission(auth.PermRFIDIngest),
		deps.RateLimiter.Limit(deps.IngestRatePerMinute),
	)

	handle := func(pattern string, mw middleware.Middleware, h http.HandlerFunc) {
		mux.Handle(pattern, mw(h))
	}

	// Inventory.
	handle("GET /api/v1/inventory", invRead, deps.Inventory.List)
	handle("POST /api/v1/inventory", invWrite, deps.Inventory.Create)
	handle("GET /api/v1/inventory/{id}", invRead, deps.Inventory.Get)
	handle("PUT /api/v1/inventory/{id}", invWrite, deps.Inventory.Update)
	handle("DELETE /api/v1/inventory/{id}", invWrite, deps.Inventory.Delete)
	handle("POST /api/v1/inventory/{id}/check-in", invWrite, deps.Inventory.CheckIn)
	handle("POST /api/v1/inventory/{id}/check-out", invWrite, deps.Inventory.CheckOut)
	handle("GET /api/v1/inventory/{id}/movements", invRead, deps.Inventory.ListMovements)

	// RFID registry and intake. The static "unknown" route must be
	// registered alongside the {id} route; the mux prefers the literal
	// segment.
	handle("GET /api/v1/rfid/tags", rfidRead, deps.RFID.ListTags)
	handle("GET /api/v1/rfid/tags/unknown", rfidRead, deps.RFID.ListUnknown)
	handle("POST /api/v1/rfid/tags", rfidWrite, deps.RFID.CreateTag)
	handle("GET /api/v1/rfid/tags/{id}", rfidRead, deps.RFID.GetTag)
	handle("DELETE /api/v1/rfid/tags/{id}", rfidWrite, deps.RFID.DeleteTag)
	handle("POST /api/v1/rfid/tags/{id}/enroll", rfidWrite, deps.RFID.Enroll)
	handle("DELETE /api/v1/rfid/tags/{id}/enroll", rfidWrite, deps.RFID.Unenroll)
	handle("POST /api/v1/rfid/detections", ingest, deps.RFID.RecordDetection)

	// Product catalog (read-only).
	handle("GET /api/v1/products", invRead, deps.Products.List)

	return mux
}
