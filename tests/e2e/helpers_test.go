//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/rentstack/assettrack-backend/internal/adapter/postgres"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/audit"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/detection"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/item"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/movement"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/product"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/tag"
	"github.com/rentstack/assettrack-backend/internal/adapter/postgres/testhelper"
	authpkg "github.com/rentstack/assettrack-backend/internal/auth"
	"github.com/rentstack/assettrack-backend/internal/config"
	"github.com/rentstack/assettrack-backend/internal/service/inventory"
	"github.com/rentstack/assettrack-backend/internal/service/rfid"
	"github.com/rentstack/assettrack-backend/internal/transport/middleware"
	"github.com/rentstack/assettrack-backend/internal/transport/rest"
)

const testJWTSecret = "e2e-test-secret-key-at-least-32-chars"

// allPerms grants everything an operator can do.
var allPerms = []string{
	authpkg.PermInventoryRead,
	authpkg.PermInventoryWrite,
	authpkg.PermRFIDRead,
	authpkg.PermRFIDWrite,
	authpkg.PermRFIDIngest,
}

// testServer wraps the full-stack HTTP server for E2E tests.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	jwt    *authpkg.JWTManager
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	itemRepo := item.New(pool)
	movementRepo := movement.New(pool)
	tagRepo := tag.New(pool)
	detectionRepo := detection.New(pool)
	productRepo := product.New(pool)
	auditRepo := audit.New(pool)

	invCfg := config.InventoryConfig{MovementPreviewLimit: 20, MaxContainerDepth: 10}
	rfidCfg := config.RFIDConfig{DetectionPreviewLimit: 20, MaxClockSkew: 5 * time.Minute, IngestRatePerMinute: 10000}

	inventorySvc := inventory.NewService(logger, itemRepo, movementRepo, tagRepo, auditRepo, txm, invCfg)
	rfidSvc := rfid.NewService(logger, tagRepo, detectionRepo, itemRepo, auditRepo, txm, rfidCfg)

	jwtManager := authpkg.NewJWTManager(testJWTSecret, "assettrack", time.Hour)

	rateLimiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(rateLimiter.Stop)

	router := rest.NewRouter(rest.RouterDeps{
		Health:              rest.NewHealthHandler(pool, "e2e"),
		Inventory:           rest.NewInventoryHandler(inventorySvc, logger),
		RFID:                rest.NewRFIDHandler(rfidSvc, logger),
		Products:            rest.NewProductsHandler(productRepo, logger),
		RateLimiter:         rateLimiter,
		IngestRatePerMinute: rfidCfg.IngestRatePerMinute,
	})

	handler := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.Auth(jwtManager),
	)(router)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		jwt:    jwtManager,
	}
}

// operatorToken issues an access token with the given permissions.
func (ts *testServer) operatorToken(t *testing.T, perms ...string) string {
	t.Helper()
	if len(perms) == 0 {
		perms = allPerms
	}
	token, err := ts.jwt.GenerateAccessToken(uuid.New(), perms)
	require.NoError(t, err)
	return token
}

// doJSON performs a request with an optional JSON body and bearer token,
// returning the status code and decoded response body.
func (ts *testServer) doJSON(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Middleware-level rejections are plain text; everything else is JSON.
	var decoded map[string]any
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}

	return resp.StatusCode, decoded
}

// fieldString extracts a string field from a decoded JSON object.
func fieldString(t *testing.T, obj map[string]any, key string) string {
	t.Helper()
	v, ok := obj[key].(string)
	require.True(t, ok, "expected string field %q in %v", key, obj)
	return v
}
