// Package domain holds the core entities, ports, and error taxonomy of the
// career recommendation pipeline.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")

	// Upstream recommendation service failures.
	ErrUpstreamTimeout     = errors.New("upstream timeout")
	ErrUpstreamRateLimit   = errors.New("upstream rate limit")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInvalidCredentials  = errors.New("upstream credentials invalid")
	ErrMalformedResponse   = errors.New("malformed upstream response")

	// ErrMissingSection is returned by the response parser when neither a
	// roles section nor a roadmap section could be located in the raw text.
	ErrMissingSection = errors.New("missing section")

	// ErrEngineUnavailable is returned by the report renderer when the
	// document engine cannot be reached or fails to convert.
	ErrEngineUnavailable = errors.New("render engine unavailable")

	ErrInternal = errors.New("internal error")
)

// Assessment sections
const (
	SectionInterest    = "interest"
	SectionAptitude    = "aptitude"
	SectionPersonality = "personality"
)

// Answer is a single submitted answer: either a 1..5 scale value or a
// categorical choice. A zero Answer counts as unanswered.
type Answer struct {
	Scale  int    // 1..5 when answered numerically, 0 otherwise
	Choice string // non-empty for categorical answers
}

// Answered reports whether the answer carries any value.
func (a Answer) Answered() bool { return a.Scale != 0 || a.Choice != "" }

// CandidateProfile carries the free-text fields collected alongside the
// questionnaire. All fields are user-supplied and must be sanitized before
// they reach a prompt.
type CandidateProfile struct {
	Name      string
	Education string
	Goal      string
}

// AssessmentAnswers is the completed questionnaire for one assessment:
// question-id to answer, grouped by section. Immutable once submitted; the
// pipeline receives it read-only from the intake collaborator.
type AssessmentAnswers struct {
	AssessmentID string
	Sections     map[string]map[string]Answer
	Profile      CandidateProfile
}

// NormalizedProfile is the fixed-shape feature representation derived from
// AssessmentAnswers. Every dimension key defined by the normalizer is present
// with a value in [0,1]; dimensions that had no usable answer carry the
// neutral default and are listed in Defaulted.
type NormalizedProfile struct {
	AssessmentID string
	Dimensions   map[string]float64
	Defaulted    []string
	Profile      CandidateProfile
}

// RecommendationRequest is the deterministic payload for the recommendation
// service: the same NormalizedProfile and prompt version always produce the
// same prompts.
type RecommendationRequest struct {
	AssessmentID  string
	PromptVersion string
	SystemPrompt  string
	UserPrompt    string
}

// RawRecommendationResponse is the transient free-form text returned by the
// recommendation service. It is never persisted beyond parsing.
type RawRecommendationResponse struct {
	AssessmentID    string
	Text            string
	Model           string
	ReceivedAt      time.Time
	ProviderLatency time.Duration
}

// RecommendedRole is one suggested career path with its fit rationale.
type RecommendedRole struct {
	Title     string  `json:"title"`
	FitScore  float64 `json:"fit_score"` // normalized fraction [0,1]
	Rationale string  `json:"rationale"`
}

// SkillGap names a skill the candidate should acquire.
type SkillGap struct {
	Skill  string `json:"skill"`
	Detail string `json:"detail"`
}

// RoadmapMilestone is one ordered step of the career roadmap. TargetOffset is
// strictly increasing in source order and is the tie-break for "next step"
// ordering downstream.
type RoadmapMilestone struct {
	Label        string `json:"label"`
	TargetOffset int    `json:"target_offset"`
	Description  string `json:"description"`
}

// CareerPlan is the canonical structured result for one assessment. Exactly
// one plan exists per assessment id; it is immutable once stored.
type CareerPlan struct {
	AssessmentID   string             `json:"assessment_id"`
	PromptVersion  string             `json:"prompt_version"`
	GeneratedAt    time.Time          `json:"generated_at"`
	SourceMarkdown string             `json:"source_markdown"`
	Roles          []RecommendedRole  `json:"roles"`
	SkillGaps      []SkillGap         `json:"skill_gaps"`
	Milestones     []RoadmapMilestone `json:"milestones"`
}

// ReportArtifact is the rendered, downloadable document for a plan. It is
// derived state: regenerable from the CareerPlan at any time.
type ReportArtifact struct {
	AssessmentID string
	Format       string // "pdf"
	Filename     string
	Bytes        []byte
	RenderedAt   time.Time
}

// ArtifactFormatPDF is the only supported report format.
const ArtifactFormatPDF = "pdf"

// PlanRepository persists career plans with write-once semantics per
// assessment id.
type PlanRepository interface {
	// Insert stores a new plan. It returns ErrConflict when a plan already
	// exists for the assessment id; a stored row is never updated in place.
	Insert(ctx Context, p CareerPlan) error
	// Get loads the plan for an assessment id, or ErrNotFound.
	Get(ctx Context, assessmentID string) (CareerPlan, error)
}

// RecommendationClient calls the external text-generation service.
type RecommendationClient interface {
	Generate(ctx Context, req RecommendationRequest) (RawRecommendationResponse, error)
}

// DocumentEngine converts HTML into a binary document (PDF). Implementations
// call an external rendering engine and surface ErrEngineUnavailable when it
// cannot serve.
type DocumentEngine interface {
	ConvertHTML(ctx Context, html string) ([]byte, error)
}

// ArtifactCache stores rendered report bytes keyed by plan identity. Get
// returns ErrNotFound on a miss. Caching is best-effort: artifacts are a pure
// function of the plan and can always be regenerated.
type ArtifactCache interface {
	Get(ctx Context, key string) ([]byte, error)
	Put(ctx Context, key string, doc []byte) error
}

// Context aliases context.Context so that usecases and adapters share the
// domain signatures without re-importing it everywhere.
type Context = context.Context
