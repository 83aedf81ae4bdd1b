package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firesafe-engine/internal/alerting"
	"firesafe-engine/internal/apperr"
	"firesafe-engine/internal/auth"
	"firesafe-engine/internal/loop"
	"firesafe-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ==================== fakes ====================

type fakeSensors struct {
	added      []models.SensorInput
	historyErr error
}

func (f *fakeSensors) AddReading(ctx context.Context, in models.SensorInput) (models.SensorReading, error) {
	if err := auth.Require(auth.FromContext(ctx), auth.CapabilityAdmin); err != nil {
		return models.SensorReading{}, err
	}
	if in.SmokePercent > 100 {
		return models.SensorReading{}, apperr.NewValidation("smoke_percent", "must be within [0, 100]")
	}
	f.added = append(f.added, in)
	return models.SensorReading{ID: "r-1", TemperatureC: in.TemperatureC, Status: models.SensorNormal}, nil
}

func (f *fakeSensors) History(context.Context) ([]models.SensorReading, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return nil, nil
}

func (f *fakeSensors) Alerts(context.Context) ([]models.AlertHistoryEntry, error) {
	return []models.AlertHistoryEntry{{ID: "a-1", Status: models.AlertSent}}, nil
}

func (f *fakeSensors) DispatchState(context.Context) (alerting.State, error) {
	return alerting.StateIdle, nil
}

func (f *fakeSensors) Series(context.Context) ([]models.SeriesSample, error) {
	return []models.SeriesSample{{Value: 12.5}}, nil
}

type fakeReview struct {
	lastStrategy string
	lastLimit    uint64
}

func (f *fakeReview) AnalyzeProject(_ context.Context, id string) ([]models.AutoReviewResult, error) {
	if id == "missing" {
		return nil, apperr.NewValidation("project_id", "%s does not exist", id)
	}
	return []models.AutoReviewResult{{DrawingID: "d-1", ComplianceScore: 90}}, nil
}

func (f *fakeReview) GenerateReviewReport(_ context.Context, id string) (models.ComplianceReport, error) {
	switch id {
	case "missing":
		return models.ComplianceReport{}, apperr.NewValidation("project_id", "%s does not exist", id)
	case "broken":
		return models.ComplianceReport{}, errors.New("database is down")
	}
	return models.ComplianceReport{ComplianceScore: 75, OverallStatus: models.StatusRejected}, nil
}

func (f *fakeReview) AnalyzeCode(_ context.Context, id string) (models.CodeAnalysis, error) {
	return models.CodeAnalysis{ProjectID: id, Chapters: []models.ChapterResult{{Chapter: "Chapter 3", Score: 100}}}, nil
}

func (f *fakeReview) ListReports(_ context.Context, id, strategy string, limit uint64) ([]models.StoredReport, error) {
	f.lastStrategy = strategy
	f.lastLimit = limit
	if id == "gone" {
		return nil, fmt.Errorf("project gone: %w", apperr.ErrNotFound)
	}
	return nil, nil
}

func (f *fakeReview) ExportReportXLSX(context.Context, string) ([]byte, error) {
	return []byte("PK-fake"), nil
}

func (f *fakeReview) CreateProject(ctx context.Context, p models.Project) (*models.Project, error) {
	if err := auth.Require(auth.FromContext(ctx), auth.CapabilityAdmin); err != nil {
		return nil, err
	}
	p.ProjectID = "p-new"
	return &p, nil
}

// ==================== helpers ====================

type testEnv struct {
	handler  http.Handler
	sensors  *fakeSensors
	review   *fakeReview
	verifier *auth.TokenVerifier
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sensors:  &fakeSensors{},
		review:   &fakeReview{},
		verifier: auth.NewTokenVerifier("test-secret", "firesafe-engine"),
	}
	env.handler = NewRouter(env.review, env.sensors, nil, env.verifier, zap.NewNop())
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.verifier.Issue("ops", []string{auth.CapabilityAdmin}, time.Hour)
	require.NoError(t, err)
	return token
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Envelope[json.RawMessage] {
	t.Helper()
	var res Envelope[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

// ==================== sensors ====================

func TestAddReading_RequiresAdmin(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/sensors/readings", `{"temperature_c":25}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeFailed, decodeResult(t, rec).Code)
	assert.Empty(t, env.sensors.added)
}

func TestAddReading_InvalidToken(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/sensors/readings", `{"temperature_c":25}`, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.sensors.added)
}

func TestAddReading_Admin(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/v1/sensors/readings",
		`{"temperature_c":25,"smoke_percent":3,"gas_ppm":12}`, env.adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decodeResult(t, rec)
	assert.Equal(t, CodeOK, res.Code)
	var reading models.SensorReading
	require.NoError(t, json.Unmarshal(res.Result, &reading))
	assert.Equal(t, "r-1", reading.ID)
	require.Len(t, env.sensors.added, 1)
	assert.Equal(t, 12.0, env.sensors.added[0].GasPpm)
}

func TestAddReading_BadInput(t *testing.T) {
	env := newTestEnv()
	token := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sensors/readings", `{"smoke_percent":140}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/sensors/readings", `{not json`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/sensors/readings", ``, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSensorViews_RequireAdmin(t *testing.T) {
	env := newTestEnv()
	viewer, err := env.verifier.Issue("viewer", []string{"viewer"}, time.Hour)
	require.NoError(t, err)

	for _, path := range []string{"/api/v1/sensors/readings", "/api/v1/sensors/alerts", "/api/v1/sensors/series"} {
		rec := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, CodeFailed, decodeResult(t, rec).Code, path)

		rec = env.do(t, http.MethodGet, path, "", viewer)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestLiveMirror_RequiresAdmin(t *testing.T) {
	verifier := auth.NewTokenVerifier("test-secret", "firesafe-engine")
	live := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	handler := NewRouter(&fakeReview{}, &fakeSensors{}, live, verifier, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token, err := verifier.Issue("ops", []string{auth.CapabilityAdmin}, time.Hour)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?access_token="+token, nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?access_token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListReadings_EmptyIsArray(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/sensors/readings", "", env.adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", string(decodeResult(t, rec).Result))
}

func TestListReadings_LoopStopped(t *testing.T) {
	env := newTestEnv()
	env.sensors.historyErr = loop.ErrStopped

	rec := env.do(t, http.MethodGet, "/api/v1/sensors/readings", "", env.adminToken(t))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListAlertsAndSeries(t *testing.T) {
	env := newTestEnv()

	token := env.adminToken(t)

	rec := env.do(t, http.MethodGet, "/api/v1/sensors/alerts", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts AlertsResponse
	require.NoError(t, json.Unmarshal(decodeResult(t, rec).Result, &alerts))
	assert.Equal(t, alerting.StateIdle, alerts.State)
	require.Len(t, alerts.Items, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/sensors/series", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var samples []models.SeriesSample
	require.NoError(t, json.Unmarshal(decodeResult(t, rec).Result, &samples))
	require.Len(t, samples, 1)
	assert.Equal(t, 12.5, samples[0].Value)
}

// ==================== projects ====================

func TestProjectReview(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/projects/p-1/review", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/projects/missing/review", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectReport_ErrorMapping(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/projects/p-1/report", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report models.ComplianceReport
	require.NoError(t, json.Unmarshal(decodeResult(t, rec).Result, &report))
	assert.Equal(t, 75, report.ComplianceScore)

	rec = env.do(t, http.MethodGet, "/api/v1/projects/missing/report", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/projects/broken/report", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeResult(t, rec).Message)
}

func TestProjectReportXLSX(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/projects/p-1/report.xlsx", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "compliance-report-p-1.xlsx")
	assert.Equal(t, "PK-fake", rec.Body.String())
}

func TestProjectCodeAnalysis(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/projects/p-9/code-analysis", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var analysis models.CodeAnalysis
	require.NoError(t, json.Unmarshal(decodeResult(t, rec).Result, &analysis))
	assert.Equal(t, "p-9", analysis.ProjectID)
	require.Len(t, analysis.Chapters, 1)
}

func TestProjectReports_QueryParams(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/v1/projects/p-1/reports?strategy=strict&limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "strict", env.review.lastStrategy)
	assert.Equal(t, uint64(5), env.review.lastLimit)

	rec = env.do(t, http.MethodGet, "/api/v1/projects/p-1/reports?limit=-3", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(0), env.review.lastLimit)

	rec = env.do(t, http.MethodGet, "/api/v1/projects/gone/reports", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv()
	body := `{"name":"Tower","building_type":"residential","floors":10,"area_m2":2500}`

	rec := env.do(t, http.MethodPost, "/api/v1/projects", body, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/projects", body, env.adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	var created models.Project
	require.NoError(t, json.Unmarshal(decodeResult(t, rec).Result, &created))
	assert.Equal(t, "p-new", created.ProjectID)
	assert.Equal(t, 10, created.Floors)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
