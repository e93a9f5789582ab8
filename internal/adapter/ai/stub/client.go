// Package stub provides a deterministic recommendation client for development
// and tests. It never calls the network.
package stub

import (
	"fmt"
	"strings"
	"time"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
)

// Client returns a fixed, well-formed recommendation for any request.
type Client struct{}

// New constructs a stub client.
func New() *Client { return &Client{} }

// Generate returns canned markdown shaped like a real model response.
func (c *Client) Generate(_ domain.Context, req domain.RecommendationRequest) (domain.RawRecommendationResponse, error) {
	b := &strings.Builder{}
	b.WriteString("## Recommended Roles\n")
	b.WriteString("- Data Analyst (fit: 85%) — strong analytical and numerical profile\n")
	b.WriteString("- Software Engineer (fit: 72%) — logical reasoning supports a build-focused path\n")
	b.WriteString("\n## Skill Gaps\n")
	b.WriteString("- SQL — learn joins, aggregations and window functions\n")
	b.WriteString("- Communication — practice presenting findings to non-technical audiences\n")
	b.WriteString("\n## Roadmap\n")
	b.WriteString("1. Complete an introductory statistics course\n")
	b.WriteString("2. Build a portfolio project with a public dataset\n")
	b.WriteString("3. Apply for internships and junior analyst roles\n")
	return domain.RawRecommendationResponse{
		AssessmentID: req.AssessmentID,
		Text:         b.String(),
		Model:        fmt.Sprintf("stub-%s", req.PromptVersion),
		ReceivedAt:   time.Now().UTC(),
	}, nil
}
