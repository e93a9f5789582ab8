package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/internal/observability"
)

// PlanStore is the canonical result store: one immutable CareerPlan per
// assessment id, write-once, with single-flight generation. The upstream AI
// call is the most expensive and rate-limited step in the system, so
// duplicate concurrent generation for one assessment must never multiply
// upstream cost or risk two divergent plans.
type PlanStore struct {
	Repo domain.PlanRepository

	// genTimeout bounds a detached generation attempt end to end.
	genTimeout time.Duration
	group      singleflight.Group
}

// NewPlanStore constructs a PlanStore around a repository.
func NewPlanStore(repo domain.PlanRepository, genTimeout time.Duration) *PlanStore {
	if genTimeout <= 0 {
		genTimeout = 2 * time.Minute
	}
	return &PlanStore{Repo: repo, genTimeout: genTimeout}
}

// Get loads the stored plan for an assessment id, or ErrNotFound.
func (s *PlanStore) Get(ctx domain.Context, assessmentID string) (domain.CareerPlan, error) {
	if assessmentID == "" {
		return domain.CareerPlan{}, fmt.Errorf("%w: assessment id required", domain.ErrInvalidArgument)
	}
	return s.Repo.Get(ctx, assessmentID)
}

// GetOrCreate returns the stored plan for assessmentID, or runs generate
// exactly once to produce and persist it. Concurrent callers for the same id
// share a single generation attempt and all receive its outcome; generations
// for distinct ids proceed fully in parallel. A failed generation leaves no
// record, so a later request may retry from scratch.
//
// The generator runs on a context detached from the caller: an abandoned
// request does not tear down the in-flight upstream call, and other waiters
// still receive the eventual result or failure.
func (s *PlanStore) GetOrCreate(ctx domain.Context, assessmentID string, generate func(domain.Context) (domain.CareerPlan, error)) (domain.CareerPlan, error) {
	if assessmentID == "" {
		return domain.CareerPlan{}, fmt.Errorf("%w: assessment id required", domain.ErrInvalidArgument)
	}

	// Fast path: the plan already exists.
	if plan, err := s.Repo.Get(ctx, assessmentID); err == nil {
		return plan, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.CareerPlan{}, err
	}

	v, err, shared := s.group.Do(assessmentID, func() (any, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.genTimeout)
		defer cancel()

		// Re-check under the flight: another process may have won the race
		// between our fast-path read and acquiring the slot.
		if plan, err := s.Repo.Get(genCtx, assessmentID); err == nil {
			return plan, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		plan, err := generate(genCtx)
		if err != nil {
			return nil, err
		}
		if err := s.Repo.Insert(genCtx, plan); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// A concurrent process persisted first; its row is canonical.
				slog.Warn("plan insert lost race, loading canonical row", slog.String("assessment_id", assessmentID))
				return s.Repo.Get(genCtx, assessmentID)
			}
			return nil, err
		}
		return plan, nil
	})
	if shared {
		observability.GenerationsShared.Inc()
	}
	if err != nil {
		return domain.CareerPlan{}, err
	}
	return v.(domain.CareerPlan), nil
}
