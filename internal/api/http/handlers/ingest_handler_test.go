package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/lfpl47/hiring-data-service/internal/api/http"
	"github.com/lfpl47/hiring-data-service/internal/api/http/handlers"
	"github.com/lfpl47/hiring-data-service/internal/auth"
	"github.com/lfpl47/hiring-data-service/internal/domain"
	"github.com/lfpl47/hiring-data-service/internal/ingest"
	"github.com/lfpl47/hiring-data-service/internal/metrics"
	"github.com/lfpl47/hiring-data-service/internal/service"
)

type memDepartmentRepo struct{ rows []domain.Department }

func (m *memDepartmentRepo) IDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(m.rows))
	for _, d := range m.rows {
		ids[d.ID] = struct{}{}
	}
	return ids, nil
}

func (m *memDepartmentRepo) InsertBatch(ctx context.Context, depts []domain.Department) error {
	m.rows = append(m.rows, depts...)
	return nil
}

func (m *memDepartmentRepo) List(ctx context.Context) ([]domain.Department, error) {
	return m.rows, nil
}

type memJobRepo struct{ rows []domain.Job }

func (m *memJobRepo) IDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(m.rows))
	for _, j := range m.rows {
		ids[j.ID] = struct{}{}
	}
	return ids, nil
}

func (m *memJobRepo) InsertBatch(ctx context.Context, jobs []domain.Job) error {
	m.rows = append(m.rows, jobs...)
	return nil
}

func (m *memJobRepo) List(ctx context.Context) ([]domain.Job, error) {
	return m.rows, nil
}

type memEmployeeRepo struct{ rows []domain.HiredEmployee }

func (m *memEmployeeRepo) IDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{}, len(m.rows))
	for _, e := range m.rows {
		ids[e.ID] = struct{}{}
	}
	return ids, nil
}

func (m *memEmployeeRepo) InsertBatch(ctx context.Context, emps []domain.HiredEmployee) error {
	m.rows = append(m.rows, emps...)
	return nil
}

func (m *memEmployeeRepo) List(ctx context.Context) ([]domain.HiredEmployee, error) {
	return m.rows, nil
}

type testEnv struct {
	app         *fiber.App
	departments *memDepartmentRepo
	jobs        *memJobRepo
	employees   *memEmployeeRepo
	ingestToken string
	readerToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		departments: &memDepartmentRepo{},
		jobs:        &memJobRepo{},
		employees:   &memEmployeeRepo{},
	}

	ingestor := ingest.NewIngestor(ingest.Dependencies{
		DepartmentRepo: env.departments,
		JobRepo:        env.jobs,
		EmployeeRepo:   env.employees,
	})
	ingestService := service.NewIngestService(service.IngestDependencies{
		Ingestor: ingestor,
		Reports:  ingest.NewReportWriter(t.TempDir(), zap.NewNop()),
	})
	aggregator := metrics.NewAggregator(metrics.Dependencies{
		EmployeeRepo:   env.employees,
		DepartmentRepo: env.departments,
		JobRepo:        env.jobs,
	})

	tokens := auth.NewTokenManager("test-secret", 60)
	var err error
	env.ingestToken, _, err = tokens.GenerateToken("tester", auth.RoleIngest)
	require.NoError(t, err)
	env.readerToken, _, err = tokens.GenerateToken("tester", auth.RoleReader)
	require.NoError(t, err)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("hiring-data-service", "test", nil, nil),
		Ingest:         handlers.NewIngestHandler(ingestService),
		Metrics:        handlers.NewMetricsHandler(aggregator),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	env.app = app
	return env
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	return body.Error.Code
}

func TestIngestTableAcceptsBatch(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/ingest/departments", env.ingestToken, fiber.Map{
		"records": []fiber.Map{
			{"id": 1, "department": "Engineering"},
			{"id": 2, "department": "Sales"},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			RunID    string `json:"run_id"`
			Table    string `json:"table"`
			Accepted int    `json:"accepted"`
			Rejected int    `json:"rejected"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Data.RunID)
	assert.Equal(t, "departments", body.Data.Table)
	assert.Equal(t, 2, body.Data.Accepted)
	assert.Equal(t, 0, body.Data.Rejected)
	assert.Len(t, env.departments.rows, 2)
}

func TestIngestTableReportsRejections(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/ingest/departments", env.ingestToken, fiber.Map{
		"records": []fiber.Map{
			{"id": 1, "department": "Engineering"},
			{"id": "oops", "department": "Sales"},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Accepted int    `json:"accepted"`
			Rejected int    `json:"rejected"`
			Report   string `json:"report"`
			Errors   []struct {
				Row    int `json:"row_index"`
				Reason struct {
					Code string `json:"code"`
				} `json:"reason"`
			} `json:"errors"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.Data.Accepted)
	assert.Equal(t, 1, body.Data.Rejected)
	assert.NotEmpty(t, body.Data.Report)
	require.Len(t, body.Data.Errors, 1)
	assert.Equal(t, 1, body.Data.Errors[0].Row)
	assert.Equal(t, "bad_type", body.Data.Errors[0].Reason.Code)
}

func TestIngestTableBatchTooLarge(t *testing.T) {
	env := newTestEnv(t)

	records := make([]fiber.Map, 1001)
	for i := range records {
		records[i] = fiber.Map{"id": i + 1, "department": fmt.Sprintf("D%d", i+1)}
	}
	resp := env.request(t, fiber.MethodPost, "/api/v1/ingest/departments", env.ingestToken, fiber.Map{
		"records": records,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "BATCH_SIZE_INVALID", errorCode(t, resp))
	assert.Empty(t, env.departments.rows)
}

func TestIngestTableUnknownTable(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/ingest/payrolls", env.ingestToken, fiber.Map{
		"records": []fiber.Map{{"id": 1}},
	})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
}

func TestIngestAllProcessesInDependencyOrder(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/ingest", env.ingestToken, fiber.Map{
		"departments": []fiber.Map{{"id": 1, "department": "Engineering"}},
		"jobs":        []fiber.Map{{"id": 1, "job": "Backend"}},
		"hired_employees": []fiber.Map{
			{"id": 1, "name": "Ada", "datetime": "2021-02-01T00:00:00Z", "department_id": 1, "job_id": 1},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []struct {
			Table    string `json:"table"`
			Accepted int    `json:"accepted"`
		} `json:"data"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Data, 3)
	assert.Equal(t, "departments", body.Data[0].Table)
	assert.Equal(t, "jobs", body.Data[1].Table)
	assert.Equal(t, "hired_employees", body.Data[2].Table)

	// The employee references departments and jobs committed by this same
	// request, so it must land after them.
	require.Len(t, env.employees.rows, 1)
	assert.Equal(t, "Ada", env.employees.rows[0].Name)
}

func TestIngestAllEmptyPayload(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/ingest", env.ingestToken, fiber.Map{})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, resp))
}

func TestIngestRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/ingest/departments", "", fiber.Map{
		"records": []fiber.Map{{"id": 1, "department": "Engineering"}},
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
}

func TestIngestRejectsReaderRole(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodPost, "/api/v1/ingest/departments", env.readerToken, fiber.Map{
		"records": []fiber.Map{{"id": 1, "department": "Engineering"}},
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp))
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, fiber.MethodGet, "/health/live", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
