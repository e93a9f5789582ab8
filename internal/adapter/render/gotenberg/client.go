// Package gotenberg converts HTML documents to PDF through a Gotenberg
// instance's Chromium route.
package gotenberg

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Subhamsidhanta/Vision-U/internal/domain"
)

// Client implements domain.DocumentEngine over Gotenberg's HTTP API.
type Client struct {
	baseURL string
	hc      *http.Client
}

// New constructs a Client for the engine at baseURL. Outbound requests go
// through an otelhttp transport so engine calls carry spans.
func New(baseURL string, timeout time.Duration) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("Gotenberg %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout, Transport: transport},
	}
}

// ConvertHTML sends the document to /forms/chromium/convert/html and returns
// the PDF bytes. Any engine failure maps to domain.ErrEngineUnavailable.
func (c *Client) ConvertHTML(ctx domain.Context, html string) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	// Gotenberg requires the entry file to be named index.html.
	fw, err := mw.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("op=render.convert: %w", err)
	}
	if _, err := io.WriteString(fw, html); err != nil {
		return nil, fmt.Errorf("op=render.convert: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("op=render.convert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", &buf)
	if err != nil {
		return nil, fmt.Errorf("op=render.convert: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("op=render.convert: %w: %v", domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("op=render.convert: %w: status %d: %s", domain.ErrEngineUnavailable, resp.StatusCode, string(snippet))
	}
	doc, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("op=render.convert: %w: read body: %v", domain.ErrEngineUnavailable, err)
	}
	return doc, nil
}
