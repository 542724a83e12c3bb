package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/api/v1/")
}

func errorOf(t *testing.T, env Envelope) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &body))
	return body["error"]
}

func TestGetSuccess(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/dashboard/alerts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"data":{"total":4}}`))
	})

	env := c.Get(context.Background(), "/dashboard/alerts")
	assert.Equal(t, http.StatusOK, env.StatusCode)
	assert.True(t, env.OK())
	assert.JSONEq(t, `{"data":{"total":4}}`, string(env.Data))
	assert.Empty(t, env.ErrorMessage())
}

func TestPostSendsJSON(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"url":"https://example.com"}`, string(raw))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"started"}`))
	})

	env := c.Post(context.Background(), "/apt/monitoring/start", map[string]string{"url": "https://example.com"})
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	assert.JSONEq(t, `{"status":"started"}`, string(env.Data))
}

func TestNonJSONContentType(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>oops</html>"))
	})

	env := c.Get(context.Background(), "/threat-analysis")
	assert.Equal(t, http.StatusOK, env.StatusCode)
	assert.False(t, env.OK())
	assert.Equal(t, msgInvalidFormat, errorOf(t, env))
}

func TestNon2xxStatus(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"down"}`))
	})

	env := c.Get(context.Background(), "/dashboard/threats")
	assert.Equal(t, http.StatusServiceUnavailable, env.StatusCode)
	assert.False(t, env.OK())
	assert.Equal(t, "Service Unavailable", env.ErrorMessage())
}

func TestInvalidJSONBody(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":`))
	})

	env := c.Get(context.Background(), "/dashboard/threats")
	assert.False(t, env.OK())
	assert.Equal(t, msgInvalidFormat, errorOf(t, env))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	env := NewClient(url).Get(context.Background(), "/dashboard/alerts")
	assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
	assert.Equal(t, msgFetchFailed, errorOf(t, env))
}

func TestCancelledContext(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env := c.Get(ctx, "/dashboard/alerts")
	assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
}

func TestUnencodableBody(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	env := c.Post(context.Background(), "/x", map[string]any{"ch": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
}

func TestGetBlob(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		if r.URL.Path == "/api/v1/advanced-network/report/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	})

	blob, err := c.GetBlob(context.Background(), "/advanced-network/report/10.0.0.1", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", blob.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), blob.Data)

	_, err = c.GetBlob(context.Background(), "/advanced-network/report/missing", "application/pdf")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestBaseURLTrimmed(t *testing.T) {
	assert.Equal(t, "http://localhost:3014/api/v1", NewClient("http://localhost:3014/api/v1/").BaseURL())
}
