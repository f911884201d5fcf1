package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestContextJoinsPassages(t *testing.T) {
	var gotReq searchRequest
	srv := policyServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(searchResponse{Results: []passage{
			{Text: "Walkways shall maintain 0.5 footcandles minimum.", Source: "BPM 6-110"},
			{Text: "Call boxes shall be placed at 300ft intervals in parking areas.", Source: "BPM 6-112"},
			{Text: "  ", Source: "empty"},
		}})
	})

	c := NewClient(srv.URL)
	got, err := c.Context(context.Background(), "lighting standards near Parking Lot C2")
	require.NoError(t, err)

	assert.Equal(t, 3, gotReq.TopK)
	assert.Equal(t, "lighting standards near Parking Lot C2", gotReq.Query)
	assert.Contains(t, got, "[BPM 6-110] Walkways shall maintain 0.5 footcandles minimum.")
	assert.Contains(t, got, "[BPM 6-112] Call boxes")
	assert.NotContains(t, got, "empty")
}

func TestContextRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := policyServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(searchResponse{Results: []passage{
			{Text: "Lighting policy text."},
		}})
	})

	c := NewClient(srv.URL)
	c.retry.InitialBackoff = 0
	got, err := c.Context(context.Background(), "lighting standards")
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "Lighting policy text.", got)
}

func TestContextPermanentStatusFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := policyServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	c := NewClient(srv.URL)
	_, err := c.Context(context.Background(), "lighting standards")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestContextEmptyResults(t *testing.T) {
	srv := policyServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResponse{})
	})

	c := NewClient(srv.URL)
	got, err := c.Context(context.Background(), "nothing matches")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWithTopK(t *testing.T) {
	var gotReq searchRequest
	srv := policyServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(searchResponse{})
	})

	c := NewClient(srv.URL+"/", WithTopK(5))
	_, err := c.Context(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 5, gotReq.TopK)
}
