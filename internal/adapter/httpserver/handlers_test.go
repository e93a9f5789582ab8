package httpserver_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aistub "github.com/Subhamsidhanta/Vision-U/internal/adapter/ai/stub"
	"github.com/Subhamsidhanta/Vision-U/internal/adapter/httpserver"
	"github.com/Subhamsidhanta/Vision-U/internal/app"
	"github.com/Subhamsidhanta/Vision-U/internal/config"
	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/internal/usecase"
)

type memRepo struct {
	mu    sync.Mutex
	plans map[string]domain.CareerPlan
}

func newMemRepo() *memRepo { return &memRepo{plans: map[string]domain.CareerPlan{}} }

func (r *memRepo) Insert(_ domain.Context, p domain.CareerPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[p.AssessmentID]; ok {
		return fmt.Errorf("op=plan.insert: %w", domain.ErrConflict)
	}
	r.plans[p.AssessmentID] = p
	return nil
}

func (r *memRepo) Get(_ domain.Context, id string) (domain.CareerPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return domain.CareerPlan{}, fmt.Errorf("op=plan.get: %w", domain.ErrNotFound)
	}
	return p, nil
}

type pdfEngine struct{}

func (pdfEngine) ConvertHTML(_ domain.Context, _ string) ([]byte, error) {
	return []byte("%PDF-1.4 rendered"), nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{
		AppEnv:            "test",
		GenerationTimeout: 5 * time.Second,
		RateLimitPerMin:   1000,
		CORSAllowOrigins:  "*",
	}
	store := usecase.NewPlanStore(newMemRepo(), cfg.GenerationTimeout)
	srv := &httpserver.Server{
		Cfg:       cfg,
		Recommend: usecase.NewRecommendService(store, aistub.New()),
		Reports:   usecase.NewReportService(store, pdfEngine{}, nil),
	}
	return app.BuildRouter(cfg, srv)
}

const answersBody = `{
	"profile": {"name": "Priya", "education": "B.Sc Physics", "goal": "data science"},
	"sections": {
		"interest": {"analytical": {"scale": 5}, "creative": {"scale": 2}},
		"aptitude": {"numerical": {"scale": 4}},
		"personality": {"openness": {"choice": "agree"}}
	}
}`

func postRecommendation(t *testing.T, h http.Handler, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments/"+id+"/recommendation", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecommendation_PostGeneratesPlan(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	rec := postRecommendation(t, h, "a-1", answersBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AssessmentID  string                    `json:"assessment_id"`
		PromptVersion string                    `json:"prompt_version"`
		Roles         []domain.RecommendedRole  `json:"roles"`
		Milestones    []domain.RoadmapMilestone `json:"milestones"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a-1", resp.AssessmentID)
	assert.Equal(t, usecase.PromptVersion, resp.PromptVersion)
	assert.NotEmpty(t, resp.Roles)
	assert.NotEmpty(t, resp.Milestones)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRecommendation_RepeatPostReturnsSamePlan(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	r1 := postRecommendation(t, h, "a-1", answersBody)
	require.Equal(t, http.StatusOK, r1.Code)
	r2 := postRecommendation(t, h, "a-1", answersBody)
	require.Equal(t, http.StatusOK, r2.Code)
	assert.JSONEq(t, r1.Body.String(), r2.Body.String())
}

func TestRecommendation_InvalidJSON(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	rec := postRecommendation(t, h, "a-1", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestRecommendation_MissingSectionsRejected(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	rec := postRecommendation(t, h, "a-1", `{"profile": {"name": "Priya"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation failed")
}

func TestPlan_GetBeforeGeneration(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/a-1/recommendation", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestPlan_GetAfterGeneration(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	require.Equal(t, http.StatusOK, postRecommendation(t, h, "a-1", answersBody).Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/a-1/recommendation", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "assessment_id")
}

func TestReport_DownloadPDF(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	require.Equal(t, http.StatusOK, postRecommendation(t, h, "a-1", answersBody).Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/a-1/report", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="career_guide.pdf"`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestReport_WithoutPlanIsNotFound(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/a-1/report", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecommendation_NotAcceptable(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments/a-1/recommendation", strings.NewReader(answersBody))
	req.Header.Set("Accept", "text/xml")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
