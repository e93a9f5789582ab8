package usecase

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/internal/observability"
)

// ReportFilename is the download name of every rendered report.
const ReportFilename = "career_guide.pdf"

// ReportService renders stored career plans into downloadable PDF documents
// through an external engine. Rendering is idempotent and side-effect free:
// the artifact is a pure function of the plan, so it may be cached and
// regenerated freely without touching the recommendation service.
type ReportService struct {
	Store  *PlanStore
	Engine domain.DocumentEngine
	Cache  domain.ArtifactCache // optional; nil disables caching
}

// NewReportService constructs a ReportService with its dependencies.
func NewReportService(store *PlanStore, engine domain.DocumentEngine, cache domain.ArtifactCache) ReportService {
	return ReportService{Store: store, Engine: engine, Cache: cache}
}

var markdownHTML = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RequestReport renders the report for an assessment's stored plan, serving
// cached bytes when available.
func (s ReportService) RequestReport(ctx domain.Context, assessmentID string) (domain.ReportArtifact, error) {
	plan, err := s.Store.Get(ctx, assessmentID)
	if err != nil {
		return domain.ReportArtifact{}, err
	}

	key := artifactKey(plan)
	if s.Cache != nil {
		if doc, err := s.Cache.Get(ctx, key); err == nil {
			observability.RendersTotal.WithLabelValues("cache_hit").Inc()
			return artifactFor(plan, doc), nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("artifact cache read failed", slog.String("assessment_id", assessmentID), slog.Any("error", err))
		}
	}

	html, err := renderHTML(plan)
	if err != nil {
		return domain.ReportArtifact{}, fmt.Errorf("op=report.html: %w", err)
	}
	start := time.Now()
	doc, err := s.Engine.ConvertHTML(ctx, html)
	observability.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.RendersTotal.WithLabelValues("engine_error").Inc()
		return domain.ReportArtifact{}, err
	}
	if !isPDF(doc) {
		observability.RendersTotal.WithLabelValues("engine_error").Inc()
		return domain.ReportArtifact{}, fmt.Errorf("op=report.render: %w: engine returned non-pdf output (%d bytes)", domain.ErrEngineUnavailable, len(doc))
	}
	observability.RendersTotal.WithLabelValues("ok").Inc()

	if s.Cache != nil {
		// Best-effort: a cache failure never fails the request.
		if err := s.Cache.Put(ctx, key, doc); err != nil {
			slog.Warn("artifact cache write failed", slog.String("assessment_id", assessmentID), slog.Any("error", err))
		}
	}
	return artifactFor(plan, doc), nil
}

func artifactFor(plan domain.CareerPlan, doc []byte) domain.ReportArtifact {
	return domain.ReportArtifact{
		AssessmentID: plan.AssessmentID,
		Format:       domain.ArtifactFormatPDF,
		Filename:     ReportFilename,
		Bytes:        doc,
		RenderedAt:   time.Now().UTC(),
	}
}

// artifactKey derives a stable cache key from the immutable plan identity.
// Plans are write-once per assessment, so assessment id plus prompt version
// names the plan; timestamps stay out of the key because their precision
// differs between a freshly generated plan and its stored row.
func artifactKey(plan domain.CareerPlan) string {
	h := sha256.Sum256([]byte(plan.AssessmentID + "|" + plan.PromptVersion))
	return "report:" + hex.EncodeToString(h[:])
}

func isPDF(doc []byte) bool {
	return bytes.HasPrefix(doc, []byte("%PDF")) || mimetype.Detect(doc).Is("application/pdf")
}

// renderHTML converts the plan into the HTML document handed to the engine.
// Deterministic for a given plan so repeated renders are content-equivalent.
func renderHTML(plan domain.CareerPlan) (string, error) {
	md := planMarkdown(plan)
	var body bytes.Buffer
	if err := markdownHTML.Convert([]byte(md), &body); err != nil {
		return "", err
	}
	b := &strings.Builder{}
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Personalized Career Guide</title>\n")
	b.WriteString("<style>body{font-family:Helvetica,Arial,sans-serif;margin:2.5em;color:#222}h1,h2{color:#1a3c6e}li{margin:0.3em 0}</style>\n")
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// planMarkdown prefers the source markdown the service produced; when it is
// absent the structured lists are rendered instead.
func planMarkdown(plan domain.CareerPlan) string {
	b := &strings.Builder{}
	b.WriteString("# Personalized Career Guide\n\n")
	fmt.Fprintf(b, "_Generated %s_\n\n", plan.GeneratedAt.UTC().Format("2 January 2006"))
	if plan.SourceMarkdown != "" {
		b.WriteString(plan.SourceMarkdown)
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString("## Recommended Roles\n")
	for _, r := range plan.Roles {
		fmt.Fprintf(b, "- **%s** (fit %.0f%%) — %s\n", r.Title, r.FitScore*100, r.Rationale)
	}
	if len(plan.SkillGaps) > 0 {
		b.WriteString("\n## Skill Gaps\n")
		for _, g := range plan.SkillGaps {
			fmt.Fprintf(b, "- **%s** — %s\n", g.Skill, g.Detail)
		}
	}
	b.WriteString("\n## Roadmap\n")
	for _, m := range plan.Milestones {
		fmt.Fprintf(b, "%d. %s — %s\n", m.TargetOffset, m.Label, m.Description)
	}
	return b.String()
}
