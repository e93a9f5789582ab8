package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/internal/observability"
)

// RecommendService orchestrates the assessment-to-plan pipeline: normalize
// answers, build the prompt, invoke the recommendation service, parse the
// response, and persist exactly one canonical plan per assessment.
type RecommendService struct {
	Store  *PlanStore
	Client domain.RecommendationClient
}

// NewRecommendService constructs a RecommendService with its dependencies.
func NewRecommendService(store *PlanStore, client domain.RecommendationClient) RecommendService {
	return RecommendService{Store: store, Client: client}
}

// RequestRecommendation returns the career plan for the assessment,
// generating and persisting it on first request. Retries of transient
// upstream failures happen inside the client; every other step surfaces
// errors upward immediately, leaving no partial record behind.
func (s RecommendService) RequestRecommendation(ctx domain.Context, assessmentID string, answers domain.AssessmentAnswers) (domain.CareerPlan, error) {
	if assessmentID == "" {
		return domain.CareerPlan{}, fmt.Errorf("%w: assessment id required", domain.ErrInvalidArgument)
	}
	answers.AssessmentID = assessmentID

	return s.Store.GetOrCreate(ctx, assessmentID, func(genCtx domain.Context) (domain.CareerPlan, error) {
		profile := Normalize(answers)
		req := BuildRequest(profile, PromptVersion)
		slog.Info("generating career plan",
			slog.String("assessment_id", assessmentID),
			slog.String("prompt_version", PromptVersion),
			slog.Int("defaulted_dimensions", len(profile.Defaulted)))

		raw, err := s.Client.Generate(genCtx, req)
		if err != nil {
			observability.GenerationsTotal.WithLabelValues("upstream_error").Inc()
			return domain.CareerPlan{}, err
		}
		plan, err := Parse(raw)
		if err != nil {
			observability.GenerationsTotal.WithLabelValues("parse_error").Inc()
			slog.Error("response parse failed",
				slog.String("assessment_id", assessmentID),
				slog.String("model", raw.Model),
				slog.Any("error", err))
			return domain.CareerPlan{}, err
		}
		plan.PromptVersion = PromptVersion
		plan.GeneratedAt = time.Now().UTC()

		observability.GenerationsTotal.WithLabelValues("ok").Inc()
		scores := make([]float64, 0, len(plan.Roles))
		for _, r := range plan.Roles {
			scores = append(scores, r.FitScore)
		}
		observability.ObservePlan(scores)
		slog.Info("career plan generated",
			slog.String("assessment_id", assessmentID),
			slog.Int("roles", len(plan.Roles)),
			slog.Int("skill_gaps", len(plan.SkillGaps)),
			slog.Int("milestones", len(plan.Milestones)),
			slog.Duration("provider_latency", raw.ProviderLatency))
		return plan, nil
	})
}

// Plan returns the stored plan for an assessment id without triggering
// generation.
func (s RecommendService) Plan(ctx domain.Context, assessmentID string) (domain.CareerPlan, error) {
	return s.Store.Get(ctx, assessmentID)
}
