// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"strings"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/pkg/textx"
)

// PromptVersion identifies the normalization and prompt rules. Any change to
// either bumps this so stored plans remain attributable to the rules that
// produced them.
const PromptVersion = "v2"

// neutralScore is the defined neutral default substituted for missing or
// unrecognized answers.
const neutralScore = 0.5

// sectionOrder fixes iteration order so normalization output is deterministic.
var sectionOrder = []string{domain.SectionInterest, domain.SectionAptitude, domain.SectionPersonality}

// sectionDimensions defines the fixed shape of a NormalizedProfile. Question
// ids are the dimension names within their section.
var sectionDimensions = map[string][]string{
	domain.SectionInterest:    {"analytical", "creative", "social", "enterprising", "conventional", "realistic"},
	domain.SectionAptitude:    {"verbal", "numerical", "logical", "spatial", "memory"},
	domain.SectionPersonality: {"openness", "conscientiousness", "extraversion", "agreeableness", "stability"},
}

// choiceScores maps categorical answers onto the [0,1] scale.
var choiceScores = map[string]float64{
	"strongly_disagree": 0.0,
	"disagree":          0.25,
	"neutral":           0.5,
	"agree":             0.75,
	"strongly_agree":    1.0,
	"low":               0.25,
	"medium":            0.5,
	"high":              0.75,
	"no":                0.0,
	"yes":               1.0,
}

// Normalize converts raw assessment answers into the fixed feature
// representation. It is pure and total: every dimension defined by
// sectionDimensions is present in the result with a value in [0,1], and
// missing or unrecognized answers fall back to the neutral default and are
// recorded in Defaulted. It never fails.
func Normalize(a domain.AssessmentAnswers) domain.NormalizedProfile {
	p := domain.NormalizedProfile{
		AssessmentID: a.AssessmentID,
		Dimensions:   make(map[string]float64, 16),
		Profile: domain.CandidateProfile{
			Name:      textx.SanitizeText(a.Profile.Name),
			Education: textx.SanitizeText(a.Profile.Education),
			Goal:      textx.SanitizeText(a.Profile.Goal),
		},
	}
	for _, section := range sectionOrder {
		answers := a.Sections[section]
		for _, dim := range sectionDimensions[section] {
			key := DimensionKey(section, dim)
			score, ok := answerScore(answers[dim])
			if !ok {
				score = neutralScore
				p.Defaulted = append(p.Defaulted, key)
			}
			p.Dimensions[key] = score
		}
	}
	return p
}

// DimensionKey joins a section and dimension name into the flat profile key.
func DimensionKey(section, dim string) string { return section + "." + dim }

// answerScore maps one answer onto [0,1]. The second return is false when the
// answer is missing or unrecognized and the neutral default applies.
func answerScore(a domain.Answer) (float64, bool) {
	if !a.Answered() {
		return 0, false
	}
	if a.Scale != 0 {
		v := a.Scale
		if v < 1 {
			v = 1
		}
		if v > 5 {
			v = 5
		}
		return float64(v-1) / 4, true
	}
	if s, ok := choiceScores[normalizeChoice(a.Choice)]; ok {
		return s, true
	}
	return 0, false
}

func normalizeChoice(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	return strings.ReplaceAll(c, " ", "_")
}

// DimensionCount returns the total number of dimensions in the fixed shape.
// Exposed for tests and request validation.
func DimensionCount() int {
	n := 0
	for _, dims := range sectionDimensions {
		n += len(dims)
	}
	return n
}

// sectionSummary renders one section's dimensions in fixed order, e.g.
// "analytical 0.75, creative 0.50, ...". Used by the prompt builder.
func sectionSummary(p domain.NormalizedProfile, section string) string {
	parts := make([]string, 0, len(sectionDimensions[section]))
	for _, dim := range sectionDimensions[section] {
		parts = append(parts, fmt.Sprintf("%s %.2f", dim, p.Dimensions[DimensionKey(section, dim)]))
	}
	return strings.Join(parts, ", ")
}
