package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/employee-directory/internal/api/http/handlers"
	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/observability"
	"github.com/spec-kit/employee-directory/internal/repository"
	"github.com/spec-kit/employee-directory/internal/seed"
	"github.com/spec-kit/employee-directory/internal/service"
)

type failingStore struct {
	repository.KeyValueStore
}

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func (failingStore) Ping(context.Context) error {
	return errors.New("storage disabled")
}

func newTestApp(t *testing.T, store repository.KeyValueStore, initial ...domain.Employee) *fiber.App {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	metrics := observability.NewMetrics()

	if len(initial) > 0 {
		raw, err := json.Marshal(initial)
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, "employees", raw))
	}

	directory := service.NewDirectoryService(service.DirectoryDependencies{
		Repo:    repository.NewEmployeeRepository(store, "employees"),
		Seed:    seed.NewFileSource(filepath.Join(t.TempDir(), "missing.json")),
		Metrics: metrics,
		Logger:  logger,
	})
	directory.Hydrate(ctx)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("employee-directory", "test", "memory", directory),
		Employees: handlers.NewEmployeesHandler(directory),
		Metrics:   metrics,
		SeedFile:  filepath.Join("..", "..", "..", "data", "employees.json"),
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	return doWithType(t, app, method, target, fiber.MIMEApplicationJSON, body)
}

func doWithType(t *testing.T, app *fiber.App, method, target, contentType, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func names(t *testing.T, body map[string]any) []string {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data envelope: %v", body)
	list, _ := data["employees"].([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.(map[string]any)["name"].(string))
	}
	return out
}

var (
	bob    = domain.Employee{Name: "Bob", Department: "Eng", Role: "Dev"}
	bobLow = domain.Employee{Name: "bob", Department: "Sales", Role: "Lead"}
	zoe    = domain.Employee{Name: "Zoe", Department: "A", Role: "R1"}
	amy    = domain.Employee{Name: "Amy", Department: "B", Role: "R2"}
)

func TestListAndFilter(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryStore(), bob, bobLow, zoe)

	status, body := do(t, app, http.MethodGet, "/employees", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Bob", "bob", "Zoe"}, names(t, body))

	status, body = do(t, app, http.MethodGet, "/employees?department=sAl", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"bob"}, names(t, body))
}

func TestAddEmployee(t *testing.T) {
	t.Run("Should reject a missing name", func(t *testing.T) {
		app := newTestApp(t, repository.NewMemoryStore(), bob)

		status, body := do(t, app, http.MethodPost, "/employees", `{"name":"","department":"X","role":""}`)
		assert.Equal(t, http.StatusBadRequest, status)
		errBody := body["error"].(map[string]any)
		assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
		assert.Equal(t, service.MessageMissingFields, errBody["message"])

		_, body = do(t, app, http.MethodGet, "/employees", "")
		assert.Equal(t, []string{"Bob"}, names(t, body))
	})

	t.Run("Should reject a malformed payload", func(t *testing.T) {
		app := newTestApp(t, repository.NewMemoryStore())
		status, _ := do(t, app, http.MethodPost, "/employees", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Should append and persist", func(t *testing.T) {
		app := newTestApp(t, repository.NewMemoryStore(), bob)

		status, body := do(t, app, http.MethodPost, "/employees", `{"name":"Ann","department":"Ops"}`)
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, []string{"Bob", "Ann"}, names(t, body))
		assert.Equal(t, true, body["persisted"])
		assert.NotContains(t, body, "warning")
	})

	t.Run("Should degrade with a warning when the store rejects writes", func(t *testing.T) {
		app := newTestApp(t, failingStore{KeyValueStore: repository.NewMemoryStore()})

		status, body := do(t, app, http.MethodPost, "/employees", `{"name":"Ann","department":"Ops"}`)
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, false, body["persisted"])
		assert.Equal(t, service.MessagePersistFailed, body["warning"])

		_, body = do(t, app, http.MethodGet, "/employees", "")
		assert.Equal(t, []string{"Ann"}, names(t, body))
	})
}

func TestAddEmployeeFromForm(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryStore())

	status, _ := doWithType(t, app, http.MethodPost, "/employees", fiber.MIMEApplicationForm,
		"name=Alice&department=Eng&role=Dev")
	require.Equal(t, http.StatusCreated, status)

	for i := 0; i < 50; i++ {
		status, _ = doWithType(t, app, http.MethodPost, "/employees", fiber.MIMEApplicationForm,
			"name=ZZZZZ&department=QQQ&role=WWW")
		require.Equal(t, http.StatusCreated, status)
	}

	_, body := do(t, app, http.MethodGet, "/employees", "")
	data := body["data"].(map[string]any)
	first := data["employees"].([]any)[0].(map[string]any)
	assert.Equal(t, "Alice", first["name"])
	assert.Equal(t, "Eng", first["department"])
	assert.Equal(t, "Dev", first["role"])
	assert.EqualValues(t, 51, data["count"])
}

func TestSortEmployees(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryStore(), zoe, amy)

	status, body := do(t, app, http.MethodPost, "/employees/sort", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Amy", "Zoe"}, names(t, body))
}

func TestSearchEmployees(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryStore(), bob, bobLow, amy)

	status, body := do(t, app, http.MethodGet, "/employees/search?name=BOB", "")
	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "found", data["kind"])
	assert.Len(t, data["records"], 2)

	_, body = do(t, app, http.MethodGet, "/employees/search?name=nobody", "")
	data = body["data"].(map[string]any)
	assert.Equal(t, "empty", data["kind"])
	assert.Equal(t, service.MessageNoMatch, data["message"])
	assert.NotContains(t, data, "records")
}

func TestRefreshEmployees(t *testing.T) {
	store := repository.NewMemoryStore()
	app := newTestApp(t, store, bob)

	raw, err := json.Marshal([]domain.Employee{zoe, amy})
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "employees", raw))

	_, body := do(t, app, http.MethodGet, "/employees", "")
	assert.Equal(t, []string{"Bob"}, names(t, body))

	status, body := do(t, app, http.MethodPost, "/employees/refresh", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Zoe", "Amy"}, names(t, body))
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryStore())
	status, body := do(t, app, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	broken := newTestApp(t, failingStore{KeyValueStore: repository.NewMemoryStore()})
	status, _ = do(t, broken, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, body = do(t, broken, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])
}

func TestSeedDocumentAndMetrics(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/employees.json", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var seeded []domain.Employee
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&seeded))
	assert.NotEmpty(t, seeded)

	do(t, app, http.MethodGet, "/employees/search?name=x", "")
	metricsResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	text, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "directory_store_operations_total")
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryStore())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(fiber.HeaderXRequestID))
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, repository.NewMemoryStore())
	status, body := do(t, app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}
