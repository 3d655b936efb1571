package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/hostres/internal/api/http/handlers"
	"github.com/spec-kit/hostres/internal/auth"
	"github.com/spec-kit/hostres/internal/config"
	"github.com/spec-kit/hostres/internal/events"
	"github.com/spec-kit/hostres/internal/observability"
	"github.com/spec-kit/hostres/internal/policy"
	"github.com/spec-kit/hostres/internal/repository/memory"
	"github.com/spec-kit/hostres/internal/service"
)

func newTestApp(t *testing.T, limiter *RateLimiter) *fiber.App {
	t.Helper()
	users := memory.NewUsers()
	tokens := auth.NewTokenManager("test-secret", 60)
	authSvc := service.NewAuthService(config.AuthConfig{BcryptCost: bcrypt.MinCost}, users, tokens, nil)
	issueSvc := service.NewIssueService(service.IssueDependencies{
		IssueRepo:   memory.NewIssues(),
		HistoryRepo: memory.NewHistory(),
		UserRepo:    users,
		Dispatcher:  events.NewInMemoryDispatcher(),
	}, policy.Permissive(), zap.NewNop())

	metrics := observability.NewMetrics("hostres-test")
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("hostres-test", "test", nil, nil),
		Auth:        handlers.NewAuthHandler(authSvc),
		Issues:      handlers.NewIssuesHandler(issueSvc),
		Gate:        auth.NewGate(tokens),
		RateLimiter: limiter,
		Metrics:     metrics,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func register(t *testing.T, app *fiber.App, name, role, designation string) string {
	t.Helper()
	body := map[string]any{"name": name, "email": name + "@hostel.edu", "password": "secret123", "type": role}
	if designation != "" {
		body["designation"] = designation
	}
	status, out := call(t, app, nethttp.MethodPost, "/auth/register", "", body)
	require.Equal(t, nethttp.StatusCreated, status, out)
	return out["token"].(string)
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t, nil)
	token := register(t, app, "asha", "student", "")

	status, out := call(t, app, nethttp.MethodPost, "/auth/register", "", map[string]any{
		"name": "asha", "email": "asha@hostel.edu", "password": "secret123", "type": "student",
	})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", out["code"])
	assert.NotEmpty(t, out["msg"])

	status, out = call(t, app, nethttp.MethodPost, "/auth/login", "", map[string]any{
		"email": "asha@hostel.edu", "password": "secret123", "type": "resolver",
	})
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "Invalid Credentials", out["msg"])

	status, out = call(t, app, nethttp.MethodPost, "/auth/login", "", map[string]any{
		"email": "asha@hostel.edu", "password": "secret123", "type": "student",
	})
	require.Equal(t, nethttp.StatusOK, status)
	user := out["user"].(map[string]any)
	assert.Equal(t, "student", user["type"])
	assert.NotContains(t, user, "password")

	status, out = call(t, app, nethttp.MethodPost, "/auth", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, user["id"], out["userId"])
	assert.Equal(t, "student", out["role"])

	status, _ = call(t, app, nethttp.MethodPost, "/auth", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, out = call(t, app, nethttp.MethodPost, "/auth/getUser", "", map[string]any{"userId": user["id"]})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "asha@hostel.edu", out["email"])
}

func TestGetUserUnknownIsNull(t *testing.T) {
	app := newTestApp(t, nil)
	raw, _ := json.Marshal(map[string]any{"userId": "6f1c3a52-7c9e-4d8e-9a1b-2f7d9c0e4b11"})
	req := httptest.NewRequest(nethttp.MethodPost, "/auth/getUser", bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "null", string(body))
}

func TestIssueEndpoints(t *testing.T) {
	app := newTestApp(t, nil)
	s1 := register(t, app, "asha", "student", "")
	s2 := register(t, app, "bilal", "student", "")
	plumber := register(t, app, "ravi", "resolver", "plumbing")

	status, _ := call(t, app, nethttp.MethodGet, "/issues", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, out := call(t, app, nethttp.MethodPost, "/issues", s1, map[string]any{
		"description": "Leaky faucet", "concernTo": "plumbing", "floor": "2", "hostelBlock": "A",
	})
	require.Equal(t, nethttp.StatusCreated, status, out)
	issue := out["issue"].(map[string]any)
	id := issue["id"].(string)
	assert.Equal(t, "pending", issue["status"])
	assert.Nil(t, issue["resolvedBy"])
	assert.Equal(t, float64(0), issue["upvotes"])

	status, _ = call(t, app, nethttp.MethodPost, "/issues", plumber, map[string]any{
		"description": "x", "concernTo": "y", "hostelBlock": "A",
	})
	assert.Equal(t, nethttp.StatusForbidden, status)

	status, out = call(t, app, nethttp.MethodGet, "/issues?type=resolver&designation=electrical", plumber, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(1), out["count"])

	status, out = call(t, app, nethttp.MethodGet, "/issues", s2, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(0), out["count"])

	status, out = call(t, app, nethttp.MethodGet, "/issues?scope=public", s2, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(1), out["count"])

	status, out = call(t, app, nethttp.MethodPatch, "/issues/"+id, s1, map[string]any{"description": "Leaky faucet"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Leaky faucet", out["issue"].(map[string]any)["description"])

	status, out = call(t, app, nethttp.MethodPatch, "/issues/"+id, s1, map[string]any{"concernTo": " "})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "Description or Concern fields cannot be empty", out["msg"])

	status, out = call(t, app, nethttp.MethodPost, "/issues/"+id+"/upvote", s2, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(1), out["issue"].(map[string]any)["upvotes"])

	status, out = call(t, app, nethttp.MethodPatch, "/issues/"+id, s2, map[string]any{"status": "resolved"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "resolved", out["issue"].(map[string]any)["status"])

	status, out = call(t, app, nethttp.MethodGet, "/issues/"+id+"/history", s1, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(2), out["count"])

	status, out = call(t, app, nethttp.MethodDelete, "/issues/"+id, s2, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "No issue found with id "+id, out["msg"])

	status, _ = call(t, app, nethttp.MethodDelete, "/issues/"+id, s1, nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, _ = call(t, app, nethttp.MethodGet, "/issues/"+id, s1, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
}

func TestUnknownRouteRendersJSONError(t *testing.T) {
	app := newTestApp(t, nil)
	status, out := call(t, app, nethttp.MethodGet, "/nope", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", out["code"])
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, nil)

	status, out := call(t, app, nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "alive", out["status"])

	status, out = call(t, app, nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, status)
	assert.Equal(t, "SERVICE_UNAVAILABLE", out["code"])

	status, _ = call(t, app, nethttp.MethodGet, "/metrics", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
}
