package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
)

// PgxPool is the minimal pgx pool surface the repositories need, kept small
// so tests can stub it without a database.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PlanRepo persists and loads career plans from PostgreSQL. Plans are
// write-once: the first insert for an assessment wins and later inserts
// report domain.ErrConflict.
type PlanRepo struct{ Pool PgxPool }

// NewPlanRepo constructs a PlanRepo with the given pool.
func NewPlanRepo(p PgxPool) *PlanRepo { return &PlanRepo{Pool: p} }

// Insert stores a plan. When a plan already exists for the assessment the
// existing row is left untouched and domain.ErrConflict is returned, so the
// caller can re-read the canonical plan.
func (r *PlanRepo) Insert(ctx domain.Context, plan domain.CareerPlan) error {
	tracer := otel.Tracer("repo.plans")
	ctx, span := tracer.Start(ctx, "plans.Insert")
	defer span.End()
	roles, err := json.Marshal(plan.Roles)
	if err != nil {
		return fmt.Errorf("op=plan.insert: marshal roles: %w", err)
	}
	gaps, err := json.Marshal(plan.SkillGaps)
	if err != nil {
		return fmt.Errorf("op=plan.insert: marshal skill gaps: %w", err)
	}
	milestones, err := json.Marshal(plan.Milestones)
	if err != nil {
		return fmt.Errorf("op=plan.insert: marshal milestones: %w", err)
	}
	q := `INSERT INTO career_plans (id, assessment_id, prompt_version, generated_at, source_markdown, roles, skill_gaps, milestones, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (assessment_id) DO NOTHING`
	tag, err := r.Pool.Exec(ctx, q, uuid.New().String(), plan.AssessmentID, plan.PromptVersion, plan.GeneratedAt.UTC(), plan.SourceMarkdown, roles, gaps, milestones, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=plan.insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=plan.insert: %w", domain.ErrConflict)
	}
	return nil
}

// Get loads the plan for an assessment.
func (r *PlanRepo) Get(ctx domain.Context, assessmentID string) (domain.CareerPlan, error) {
	tracer := otel.Tracer("repo.plans")
	ctx, span := tracer.Start(ctx, "plans.Get")
	defer span.End()
	q := `SELECT assessment_id, prompt_version, generated_at, source_markdown, roles, skill_gaps, milestones FROM career_plans WHERE assessment_id=$1`
	row := r.Pool.QueryRow(ctx, q, assessmentID)
	var (
		plan                   domain.CareerPlan
		roles, gaps, milestone []byte
	)
	if err := row.Scan(&plan.AssessmentID, &plan.PromptVersion, &plan.GeneratedAt, &plan.SourceMarkdown, &roles, &gaps, &milestone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CareerPlan{}, fmt.Errorf("op=plan.get: %w", domain.ErrNotFound)
		}
		return domain.CareerPlan{}, fmt.Errorf("op=plan.get: %w", err)
	}
	if err := json.Unmarshal(roles, &plan.Roles); err != nil {
		return domain.CareerPlan{}, fmt.Errorf("op=plan.get: unmarshal roles: %w", err)
	}
	if err := json.Unmarshal(gaps, &plan.SkillGaps); err != nil {
		return domain.CareerPlan{}, fmt.Errorf("op=plan.get: unmarshal skill gaps: %w", err)
	}
	if err := json.Unmarshal(milestone, &plan.Milestones); err != nil {
		return domain.CareerPlan{}, fmt.Errorf("op=plan.get: unmarshal milestones: %w", err)
	}
	plan.GeneratedAt = plan.GeneratedAt.UTC()
	return plan, nil
}
