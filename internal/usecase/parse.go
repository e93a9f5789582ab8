package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
)

// The upstream response is semi-structured markdown, not a guaranteed schema.
// Parsing locates well-known sections by heading pattern, tolerating heading
// variance, and keeps a conservative floor: a response with neither a roles
// section nor a roadmap section is not salvageable into a plan.

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionRoles
	sectionGaps
	sectionRoadmap
)

var (
	headingRe  = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*$`)
	boldLineRe = regexp.MustCompile(`^\s*\*\*(.+?)\*\*:?\s*$`)
	bulletRe   = regexp.MustCompile(`^\s*(?:[-*•]|\d{1,2}[.)])\s+(.+?)\s*$`)
	percentRe  = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)
	fitRe      = regexp.MustCompile(`(?i)fit[:=\s]+([01](?:\.\d+)?)\b`)
	// fitAnnotRe removes the whole "fit: 85%" annotation from a title.
	fitAnnotRe   = regexp.MustCompile(`(?i)fit[:=\s]+[\d.]+\s*%?`)
	emptyParenRe = regexp.MustCompile(`\(\s*\)`)
)

// Parse extracts a structured career plan from the raw service response. It
// never calls external services and never retries; failures are handed back
// to the caller. A missing skill-gap section yields an empty list, not an
// error; missing both roles and roadmap yields ErrMissingSection.
func Parse(raw domain.RawRecommendationResponse) (domain.CareerPlan, error) {
	plan := domain.CareerPlan{
		AssessmentID:   raw.AssessmentID,
		SourceMarkdown: strings.TrimSpace(raw.Text),
	}

	current := sectionNone
	foundRoles, foundRoadmap := false, false
	var explicitFit []bool // aligned with plan.Roles; true when the item carried a score
	var pending []string   // non-list text seen before the section's first item

	for _, line := range strings.Split(raw.Text, "\n") {
		if heading, ok := headingText(line); ok {
			if kind := classifySection(heading); kind != sectionNone {
				current = kind
				pending = nil
				switch kind {
				case sectionRoles:
					foundRoles = true
				case sectionRoadmap:
					foundRoadmap = true
				}
				continue
			}
			// Unknown heading ends the current section.
			current = sectionNone
			pending = nil
			continue
		}
		if current == sectionNone {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			item := m[1]
			if len(pending) > 0 {
				item = item + " " + strings.Join(pending, " ")
				pending = nil
			}
			appendItem(&plan, &explicitFit, current, item)
			continue
		}
		// Unrecognized line under a recognized section: preserve it as
		// rationale/description text rather than discarding it.
		appendLooseText(&plan, current, &pending, stripMarkdown(trimmed))
	}

	if !foundRoles && !foundRoadmap {
		return domain.CareerPlan{}, fmt.Errorf("op=plan.parse: %w: no roles or roadmap section", domain.ErrMissingSection)
	}
	assignFitScores(plan.Roles, explicitFit)
	return plan, nil
}

func headingText(line string) (string, bool) {
	if m := headingRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := boldLineRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// classifySection matches heading text case- and punctuation-insensitively
// against the known section vocabularies.
func classifySection(heading string) sectionKind {
	h := normalizeHeading(heading)
	switch {
	case strings.Contains(h, "role") || strings.Contains(h, "career path") || strings.Contains(h, "career recommendation"):
		return sectionRoles
	case strings.Contains(h, "skill gap") || strings.Contains(h, "skills to learn") || strings.Contains(h, "gap"):
		return sectionGaps
	case strings.Contains(h, "roadmap") || strings.Contains(h, "action plan") || strings.Contains(h, "milestone") || strings.Contains(h, "next step"):
		return sectionRoadmap
	default:
		return sectionNone
	}
}

func normalizeHeading(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func appendItem(plan *domain.CareerPlan, explicitFit *[]bool, kind sectionKind, item string) {
	head, rest := splitItem(item)
	switch kind {
	case sectionRoles:
		role := domain.RecommendedRole{Title: head, Rationale: rest}
		score, ok := parseFitScore(item)
		if ok {
			role.FitScore = score
			role.Title = stripFitSuffix(head)
		}
		plan.Roles = append(plan.Roles, role)
		*explicitFit = append(*explicitFit, ok)
	case sectionGaps:
		plan.SkillGaps = append(plan.SkillGaps, domain.SkillGap{Skill: head, Detail: rest})
	case sectionRoadmap:
		plan.Milestones = append(plan.Milestones, domain.RoadmapMilestone{
			Label:        head,
			TargetOffset: len(plan.Milestones) + 1,
			Description:  rest,
		})
	}
}

func appendLooseText(plan *domain.CareerPlan, kind sectionKind, pending *[]string, text string) {
	switch kind {
	case sectionRoles:
		if n := len(plan.Roles); n > 0 {
			plan.Roles[n-1].Rationale = joinText(plan.Roles[n-1].Rationale, text)
			return
		}
	case sectionGaps:
		if n := len(plan.SkillGaps); n > 0 {
			plan.SkillGaps[n-1].Detail = joinText(plan.SkillGaps[n-1].Detail, text)
			return
		}
	case sectionRoadmap:
		if n := len(plan.Milestones); n > 0 {
			plan.Milestones[n-1].Description = joinText(plan.Milestones[n-1].Description, text)
			return
		}
	}
	*pending = append(*pending, text)
}

// splitItem separates a list item into its leading label and trailing
// free text on the first dash or colon separator.
func splitItem(item string) (head, rest string) {
	item = stripMarkdown(item)
	for _, sep := range []string{" — ", " – ", " - ", ": "} {
		if i := strings.Index(item, sep); i > 0 {
			return strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+len(sep):])
		}
	}
	return strings.TrimSpace(item), ""
}

func stripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "`", "")
	return strings.TrimSpace(s)
}

func joinText(existing, extra string) string {
	if existing == "" {
		return extra
	}
	return existing + " " + extra
}

// parseFitScore recognizes "85%"-style percentages and "fit: 0.85"-style
// fractions inside a role item.
func parseFitScore(item string) (float64, bool) {
	if m := fitRe.FindStringSubmatch(item); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return clamp01(v), true
		}
	}
	if m := percentRe.FindStringSubmatch(item); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return clamp01(v / 100), true
		}
	}
	return 0, false
}

func stripFitSuffix(head string) string {
	head = fitAnnotRe.ReplaceAllString(head, "")
	head = percentRe.ReplaceAllString(head, "")
	head = emptyParenRe.ReplaceAllString(head, "")
	head = strings.TrimRight(strings.TrimSpace(head), "(-–—:,")
	return strings.TrimSpace(head)
}

// assignFitScores fills rank-based defaults for roles without an explicit
// score: best fit first, decreasing by 0.15 per rank, floored at 0.4. An
// explicit score survives as written, zero included.
func assignFitScores(roles []domain.RecommendedRole, explicit []bool) {
	for i := range roles {
		if i < len(explicit) && explicit[i] {
			continue
		}
		s := 1.0 - 0.15*float64(i)
		if s < 0.4 {
			s = 0.4
		}
		roles[i].FitScore = s
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
