package main

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/campuswatch/internal/config"
)

func TestQueryHour(t *testing.T) {
	cfg = &config.Config{}
	cfg.Scan.Hour = 22

	req := httptest.NewRequest("GET", "/api/risk?hour=3", nil)
	assert.Equal(t, 3, queryHour(req))

	req = httptest.NewRequest("GET", "/api/risk", nil)
	assert.Equal(t, 22, queryHour(req))

	req = httptest.NewRequest("GET", "/api/risk?hour="+url.QueryEscape("nope"), nil)
	assert.Equal(t, 22, queryHour(req))
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, 201, map[string]string{"status": "ok"})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, 400, "lat and lon are required numbers")

	require.Equal(t, 400, rec.Code)
	assert.JSONEq(t, `{"error":"lat and lon are required numbers"}`, rec.Body.String())
}
