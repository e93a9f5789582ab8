package usecase

import (
	"html"
	"strings"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/pkg/textx"
)

// Free-text fields are length-capped before they reach the prompt so the
// upstream service never receives unbounded user input.
const (
	maxNameLen      = 80
	maxEducationLen = 120
	maxGoalLen      = 300
)

// BuildRequest deterministically renders a normalized profile into the
// request payload for the recommendation service. Pure function; no I/O. The
// same profile and prompt version always produce byte-identical prompts.
func BuildRequest(p domain.NormalizedProfile, promptVersion string) domain.RecommendationRequest {
	return domain.RecommendationRequest{
		AssessmentID:  p.AssessmentID,
		PromptVersion: promptVersion,
		SystemPrompt:  buildSystemPrompt(),
		UserPrompt:    buildUserPrompt(p),
	}
}

func buildSystemPrompt() string {
	return strings.TrimSpace(`You are an expert student career counselor.
Your task: produce a personalized career guide for the student in short, clean, point-wise Markdown.
Respond in Markdown only, using exactly these sections:

## Recommended Roles
- One role per list item: role title, then a dash, then a one-line fit rationale.

## Skill Gaps
- One skill per list item: skill name, then a dash, then what to learn.

## Roadmap
- Ordered steps, one per list item, earliest first.

Rules:
- Use bullet points, avoid long paragraphs.
- Recommend at most 3 roles, ordered best fit first.
- Keep every line under 30 words.`)
}

func buildUserPrompt(p domain.NormalizedProfile) string {
	b := &strings.Builder{}
	b.WriteString("Student assessment scores (0.00 = lowest, 1.00 = highest):\n")
	b.WriteString("Interests: ")
	b.WriteString(sectionSummary(p, domain.SectionInterest))
	b.WriteString("\nAptitude: ")
	b.WriteString(sectionSummary(p, domain.SectionAptitude))
	b.WriteString("\nPersonality: ")
	b.WriteString(sectionSummary(p, domain.SectionPersonality))
	b.WriteString("\n\nStudent profile:\n")
	b.WriteString("- Name: ")
	b.WriteString(promptField(p.Profile.Name, maxNameLen, "Student"))
	b.WriteString("\n- Education: ")
	b.WriteString(promptField(p.Profile.Education, maxEducationLen, "Not specified"))
	b.WriteString("\n- Career goal: ")
	b.WriteString(promptField(p.Profile.Goal, maxGoalLen, "Not specified"))
	b.WriteString("\n\nRespond with the three Markdown sections only.")
	return b.String()
}

// promptField sanitizes, escapes, and caps a user-supplied free-text value,
// substituting fallback when nothing usable remains.
func promptField(s string, maxLen int, fallback string) string {
	s = textx.SanitizePromptField(s, maxLen)
	if s == "" {
		return fallback
	}
	return html.EscapeString(s)
}
