package usecase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/internal/usecase"
)

func TestBuildRequest_Deterministic(t *testing.T) {
	t.Parallel()
	p := usecase.Normalize(domain.AssessmentAnswers{
		AssessmentID: "a-1",
		Sections: map[string]map[string]domain.Answer{
			domain.SectionInterest: {"analytical": {Scale: 5}},
		},
		Profile: domain.CandidateProfile{Name: "Priya", Goal: "data science"},
	})
	r1 := usecase.BuildRequest(p, usecase.PromptVersion)
	r2 := usecase.BuildRequest(p, usecase.PromptVersion)
	assert.Equal(t, r1.SystemPrompt, r2.SystemPrompt)
	assert.Equal(t, r1.UserPrompt, r2.UserPrompt)
	assert.Equal(t, usecase.PromptVersion, r1.PromptVersion)
	assert.Equal(t, "a-1", r1.AssessmentID)
}

func TestBuildRequest_IncludesScoresAndProfile(t *testing.T) {
	t.Parallel()
	p := usecase.Normalize(domain.AssessmentAnswers{
		AssessmentID: "a-1",
		Sections: map[string]map[string]domain.Answer{
			domain.SectionInterest: {"analytical": {Scale: 4}},
		},
		Profile: domain.CandidateProfile{Name: "Priya", Education: "B.Sc Physics", Goal: "research"},
	})
	req := usecase.BuildRequest(p, usecase.PromptVersion)
	assert.Contains(t, req.UserPrompt, "analytical 0.75")
	assert.Contains(t, req.UserPrompt, "Priya")
	assert.Contains(t, req.UserPrompt, "B.Sc Physics")
	assert.Contains(t, req.SystemPrompt, "## Recommended Roles")
	assert.Contains(t, req.SystemPrompt, "## Roadmap")
}

func TestBuildRequest_EscapesAndCapsFreeText(t *testing.T) {
	t.Parallel()
	p := usecase.Normalize(domain.AssessmentAnswers{
		AssessmentID: "a-1",
		Profile: domain.CandidateProfile{
			Name: `<b>Priya</b>`,
			Goal: strings.Repeat("very long goal ", 100),
		},
	})
	req := usecase.BuildRequest(p, usecase.PromptVersion)
	assert.NotContains(t, req.UserPrompt, "<b>")
	assert.Contains(t, req.UserPrompt, "&lt;b&gt;Priya&lt;/b&gt;")
	// Goal is capped well below the raw input length.
	require.Less(t, len(req.UserPrompt), 2500)
}

func TestBuildRequest_EmptyProfileFallbacks(t *testing.T) {
	t.Parallel()
	p := usecase.Normalize(domain.AssessmentAnswers{AssessmentID: "a-1"})
	req := usecase.BuildRequest(p, usecase.PromptVersion)
	assert.Contains(t, req.UserPrompt, "- Name: Student")
	assert.Contains(t, req.UserPrompt, "- Education: Not specified")
	assert.Contains(t, req.UserPrompt, "- Career goal: Not specified")
}
