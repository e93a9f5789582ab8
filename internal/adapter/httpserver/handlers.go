package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Subhamsidhanta/Vision-U/internal/config"
	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Recommend  usecase.RecommendService
	Reports    usecase.ReportService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type answerDTO struct {
	Scale  int    `json:"scale,omitempty" validate:"omitempty,min=1,max=5"`
	Choice string `json:"choice,omitempty" validate:"omitempty,max=64"`
}

type profileDTO struct {
	Name      string `json:"name" validate:"omitempty,max=200"`
	Education string `json:"education" validate:"omitempty,max=300"`
	Goal      string `json:"goal" validate:"omitempty,max=1000"`
}

type recommendationRequestDTO struct {
	Profile  profileDTO                      `json:"profile"`
	Sections map[string]map[string]answerDTO `json:"sections" validate:"required,min=1"`
}

func (d recommendationRequestDTO) toDomain(assessmentID string) domain.AssessmentAnswers {
	sections := make(map[string]map[string]domain.Answer, len(d.Sections))
	for name, qs := range d.Sections {
		m := make(map[string]domain.Answer, len(qs))
		for q, a := range qs {
			m[q] = domain.Answer{Scale: a.Scale, Choice: a.Choice}
		}
		sections[strings.ToLower(strings.TrimSpace(name))] = m
	}
	return domain.AssessmentAnswers{
		AssessmentID: assessmentID,
		Sections:     sections,
		Profile: domain.CandidateProfile{
			Name:      d.Profile.Name,
			Education: d.Profile.Education,
			Goal:      d.Profile.Goal,
		},
	}
}

type planDTO struct {
	AssessmentID  string                    `json:"assessment_id"`
	PromptVersion string                    `json:"prompt_version"`
	GeneratedAt   time.Time                 `json:"generated_at"`
	Roles         []domain.RecommendedRole  `json:"roles"`
	SkillGaps     []domain.SkillGap         `json:"skill_gaps"`
	Milestones    []domain.RoadmapMilestone `json:"milestones"`
}

func planResponse(plan domain.CareerPlan) planDTO {
	return planDTO{
		AssessmentID:  plan.AssessmentID,
		PromptVersion: plan.PromptVersion,
		GeneratedAt:   plan.GeneratedAt,
		Roles:         plan.Roles,
		SkillGaps:     plan.SkillGaps,
		Milestones:    plan.Milestones,
	}
}

// RecommendationHandler accepts assessment answers and returns the career
// plan, generating it on first request and serving the stored plan afterwards.
func (s *Server) RecommendationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		// Cap body size to prevent abuse
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req recommendationRequestDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}
		plan, err := s.Recommend.RequestRecommendation(r.Context(), id, req.toDomain(id))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, planResponse(plan))
	}
}

// PlanHandler returns the stored plan for an assessment without generating.
func (s *Server) PlanHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		plan, err := s.Recommend.Plan(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, planResponse(plan))
	}
}

// ReportHandler renders and streams the PDF report for a stored plan.
func (s *Server) ReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		artifact, err := s.Reports.RequestReport(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(artifact.Bytes)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(artifact.Bytes)
	}
}

// HealthzHandler reports process liveness.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the DB and Redis.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		allOK := true
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
				allOK = false
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
				allOK = false
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		status := http.StatusOK
		if !allOK {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"checks": checks})
	}
}

func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	if a := r.Header.Get("Accept"); a != "" && a != "*/*" && !strings.Contains(a, "application/json") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotAcceptable)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": "INVALID_ARGUMENT", "message": "not acceptable", "details": map[string]any{"accept": a}}})
		return false
	}
	return true
}
