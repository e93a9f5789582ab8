// Package gemini implements the recommendation client against the Google
// Generative Language REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"log/slog"

	"github.com/Subhamsidhanta/Vision-U/internal/config"
	"github.com/Subhamsidhanta/Vision-U/internal/domain"
	"github.com/Subhamsidhanta/Vision-U/internal/observability"
)

const providerLabel = "gemini"

// Client implements domain.RecommendationClient against the generateContent
// endpoint. Each Generate call runs a bounded attempt loop; transient upstream
// failures back off and retry, fatal ones stop immediately.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a Client with the configured per-request timeout. Outbound
// requests go through an otelhttp transport so upstream calls carry spans.
func New(cfg config.Config) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("Gemini %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{cfg: cfg, hc: &http.Client{Timeout: cfg.AITimeout, Transport: transport}}
}

// attemptState is the phase of the retry loop. Transitions:
// stateAttempting -> stateSucceeded | stateFailedFatal | stateBackingOff,
// stateBackingOff -> stateAttempting | stateFailedFatal (attempts exhausted
// or context done).
type attemptState int

const (
	stateAttempting attemptState = iota
	stateBackingOff
	stateSucceeded
	stateFailedFatal
)

// Generate calls the model and returns the raw text of the first candidate.
func (c *Client) Generate(ctx domain.Context, req domain.RecommendationRequest) (domain.RawRecommendationResponse, error) {
	if c.cfg.GeminiAPIKey == "" {
		return domain.RawRecommendationResponse{}, fmt.Errorf("op=ai.generate: %w: GEMINI_API_KEY missing", domain.ErrInvalidCredentials)
	}

	initial, maxIv, multiplier, maxAttempts := c.cfg.AIBackoff()
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initial
	expo.MaxInterval = maxIv
	expo.Multiplier = multiplier
	expo.MaxElapsedTime = 0 // attempts are bounded by the counter, not elapsed time

	var (
		state   = stateAttempting
		attempt int
		resp    domain.RawRecommendationResponse
		lastErr error
	)
	for {
		switch state {
		case stateAttempting:
			attempt++
			var err error
			resp, err = c.attempt(ctx, req)
			if err == nil {
				state = stateSucceeded
				break
			}
			lastErr = err
			if !retryable(err) {
				state = stateFailedFatal
				break
			}
			slog.Warn("recommendation attempt failed",
				slog.String("assessment_id", req.AssessmentID),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			state = stateBackingOff
		case stateBackingOff:
			if attempt >= maxAttempts {
				lastErr = fmt.Errorf("attempts exhausted after %d: %w", attempt, lastErr)
				state = stateFailedFatal
				break
			}
			select {
			case <-ctx.Done():
				lastErr = fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, ctx.Err())
				state = stateFailedFatal
			case <-time.After(expo.NextBackOff()):
				state = stateAttempting
			}
		case stateSucceeded:
			observability.AIRequestsTotal.WithLabelValues(providerLabel, "ok").Inc()
			return resp, nil
		case stateFailedFatal:
			observability.AIRequestsTotal.WithLabelValues(providerLabel, outcomeLabel(lastErr)).Inc()
			return domain.RawRecommendationResponse{}, fmt.Errorf("op=ai.generate: %w", lastErr)
		}
	}
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrUpstreamTimeout) ||
		errors.Is(err, domain.ErrUpstreamRateLimit) ||
		errors.Is(err, domain.ErrUpstreamUnavailable)
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return "rate_limited"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// attempt performs a single HTTP round trip and classifies its failure.
func (c *Client) attempt(ctx domain.Context, req domain.RecommendationRequest) (domain.RawRecommendationResponse, error) {
	body := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: req.SystemPrompt}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: req.UserPrompt}}}},
		GenerationConfig:  generationConfig{MaxOutputTokens: c.cfg.AIMaxTokens, Temperature: 0.4},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.RawRecommendationResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.GeminiBaseURL, "/"), c.cfg.GeminiModel)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return domain.RawRecommendationResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.GeminiAPIKey)

	start := time.Now()
	httpResp, err := c.hc.Do(httpReq)
	latency := time.Since(start)
	observability.AIRequestDuration.WithLabelValues(providerLabel).Observe(latency.Seconds())
	if err != nil {
		return domain.RawRecommendationResponse{}, classifyTransport(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return domain.RawRecommendationResponse{}, classifyStatus(httpResp.StatusCode, string(snippet))
	}

	var out generateResponse
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, 4<<20)).Decode(&out); err != nil {
		return domain.RawRecommendationResponse{}, fmt.Errorf("%w: decode body: %v", domain.ErrMalformedResponse, err)
	}
	text := candidateText(out)
	if strings.TrimSpace(text) == "" {
		return domain.RawRecommendationResponse{}, fmt.Errorf("%w: no candidate text", domain.ErrMalformedResponse)
	}
	model := out.ModelVersion
	if model == "" {
		model = c.cfg.GeminiModel
	}
	return domain.RawRecommendationResponse{
		AssessmentID:    req.AssessmentID,
		Text:            text,
		Model:           model,
		ReceivedAt:      time.Now().UTC(),
		ProviderLatency: latency,
	}, nil
}

func candidateText(out generateResponse) string {
	if len(out.Candidates) == 0 {
		return ""
	}
	b := strings.Builder{}
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func classifyStatus(code int, snippet string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", domain.ErrInvalidCredentials, code, snippet)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", domain.ErrUpstreamRateLimit, code)
	case code >= 500:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, code, snippet)
	default:
		return fmt.Errorf("%w: unexpected status %d: %s", domain.ErrMalformedResponse, code, snippet)
	}
}

func classifyTransport(err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
}
