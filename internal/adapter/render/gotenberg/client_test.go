package gotenberg_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subhamsidhanta/Vision-U/internal/adapter/render/gotenberg"
	"github.com/Subhamsidhanta/Vision-U/internal/domain"
)

func TestConvertHTML_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(8<<20))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "index.html", header.Filename)
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Contains(t, string(body), "<h1>Career Guide</h1>")

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 converted"))
	}))
	defer srv.Close()

	c := gotenberg.New(srv.URL, 5*time.Second)
	doc, err := c.ConvertHTML(context.Background(), "<html><body><h1>Career Guide</h1></body></html>")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 converted"), doc)
}

func TestConvertHTML_EngineErrorStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := gotenberg.New(srv.URL, 5*time.Second)
	_, err := c.ConvertHTML(context.Background(), "<html></html>")
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}

func TestConvertHTML_EngineUnreachable(t *testing.T) {
	t.Parallel()
	// Reserved port with no listener.
	c := gotenberg.New("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := c.ConvertHTML(context.Background(), "<html></html>")
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)
}
