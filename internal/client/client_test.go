package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/mgapi/internal/model"
)

func newTestClient(url string) *Client {
	return New(model.ServerConfig{URL: url}, nil)
}

func TestSubmit_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/execute", r.URL.Path)

		var body map[string]string
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Contains(t, body["query"], "user_manager")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"exit_code": 0, "result": "user created"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Submit(context.Background(), `{"tool":"user_manager"}`)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 0, resp.ExitCode)
	assert.Equal(t, "user created", resp.Text())
}

func TestSubmit_MissingExitCodeDefaultsToZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": "done"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Submit(context.Background(), "{}")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 0, resp.ExitCode)
}

func TestSubmit_ServerExitCodePreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"exit_code": 17, "error": "duplicate user"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Submit(context.Background(), "{}")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 17, resp.ExitCode)
	assert.Equal(t, "duplicate user", resp.Text())
}

func TestSubmit_HTTPErrorMeansNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Submit(context.Background(), "{}")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestSubmit_TransportFailureMeansNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	resp, err := newTestClient(srv.URL).Submit(context.Background(), "{}")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestSubmit_MalformedBodyMeansNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Submit(context.Background(), "{}")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestHealthy(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	assert.True(t, newTestClient(healthy.URL).Healthy(context.Background()))

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	assert.False(t, newTestClient(unhealthy.URL).Healthy(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	down.Close()
	assert.False(t, newTestClient(down.URL).Healthy(context.Background()))
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(model.ServerConfig{URL: srv.URL + "/"}, nil)
	assert.True(t, c.Healthy(context.Background()))
}
