package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subhamsidhanta/Vision-U/internal/adapter/repo/postgres"
	"github.com/Subhamsidhanta/Vision-U/internal/domain"
)

// rowStub implements pgx.Row
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// poolStub implements postgres.PgxPool for tests without a database.
type poolStub struct {
	execTag  pgconn.CommandTag
	execErr  error
	execArgs []any
	row      rowStub
}

func (p *poolStub) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	p.execArgs = args
	return p.execTag, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if p.row.scan == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}

func (p *poolStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (p *poolStub) BeginTx(_ context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

func samplePlan() domain.CareerPlan {
	return domain.CareerPlan{
		AssessmentID:   "a-1",
		PromptVersion:  "v2",
		GeneratedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SourceMarkdown: "## Recommended Roles\n- Data Analyst",
		Roles:          []domain.RecommendedRole{{Title: "Data Analyst", FitScore: 0.85, Rationale: "numerical"}},
		SkillGaps:      []domain.SkillGap{{Skill: "SQL", Detail: "joins"}},
		Milestones:     []domain.RoadmapMilestone{{Label: "Learn SQL", TargetOffset: 1}},
	}
}

func TestPlanRepo_Insert_Success(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewPlanRepo(pool)

	require.NoError(t, repo.Insert(context.Background(), samplePlan()))
	// id, assessment_id, prompt_version, generated_at, source_markdown, roles, gaps, milestones, created_at
	require.Len(t, pool.execArgs, 9)
	assert.Equal(t, "a-1", pool.execArgs[1])
	assert.Equal(t, "v2", pool.execArgs[2])
}

func TestPlanRepo_Insert_ExistingRowIsConflict(t *testing.T) {
	t.Parallel()
	// ON CONFLICT DO NOTHING reports zero affected rows for a duplicate.
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 0")}
	repo := postgres.NewPlanRepo(pool)

	err := repo.Insert(context.Background(), samplePlan())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPlanRepo_Insert_ExecError(t *testing.T) {
	t.Parallel()
	pool := &poolStub{execErr: errors.New("connection reset")}
	repo := postgres.NewPlanRepo(pool)

	err := repo.Insert(context.Background(), samplePlan())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestPlanRepo_Get_Success(t *testing.T) {
	t.Parallel()
	want := samplePlan()
	roles, _ := json.Marshal(want.Roles)
	gaps, _ := json.Marshal(want.SkillGaps)
	milestones, _ := json.Marshal(want.Milestones)

	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*dest[0].(*string) = want.AssessmentID
		*dest[1].(*string) = want.PromptVersion
		*dest[2].(*time.Time) = want.GeneratedAt
		*dest[3].(*string) = want.SourceMarkdown
		*dest[4].(*[]byte) = roles
		*dest[5].(*[]byte) = gaps
		*dest[6].(*[]byte) = milestones
		return nil
	}}}
	repo := postgres.NewPlanRepo(pool)

	got, err := repo.Get(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPlanRepo_Get_NoRowsIsNotFound(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewPlanRepo(pool)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlanRepo_Get_CorruptJSON(t *testing.T) {
	t.Parallel()
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		*dest[0].(*string) = "a-1"
		*dest[1].(*string) = "v2"
		*dest[2].(*time.Time) = time.Now().UTC()
		*dest[3].(*string) = ""
		*dest[4].(*[]byte) = []byte("{not json")
		*dest[5].(*[]byte) = []byte("[]")
		*dest[6].(*[]byte) = []byte("[]")
		return nil
	}}}
	repo := postgres.NewPlanRepo(pool)

	_, err := repo.Get(context.Background(), "a-1")
	assert.Error(t, err)
}
