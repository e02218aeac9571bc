package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, 201, map[string]int{"events": 3})

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"events": 3}`, rec.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(rec *httptest.ResponseRecorder)
		status int
		body   string
	}{
		{"bad request", func(r *httptest.ResponseRecorder) { BadRequest(r, "no waveform") }, 400, `{"error":"no waveform"}`},
		{"not found", func(r *httptest.ResponseRecorder) { NotFound(r, "job not found") }, 404, `{"error":"job not found"}`},
		{"method not allowed", func(r *httptest.ResponseRecorder) { MethodNotAllowed(r) }, 405, `{"error":"method not allowed"}`},
		{"internal error", func(r *httptest.ResponseRecorder) { InternalServerError(r, "boom") }, 500, `{"error":"boom"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Waveform string `json:"waveform"`
	}

	req := httptest.NewRequest("POST", "/api/jobs", strings.NewReader(`{"waveform":"r.gwf"}`))
	var p payload
	require.NoError(t, ReadJSON(req, &p))
	assert.Equal(t, "r.gwf", p.Waveform)

	req = httptest.NewRequest("POST", "/api/jobs", strings.NewReader(`{"unknown":1}`))
	assert.Error(t, ReadJSON(req, &p))

	req = httptest.NewRequest("POST", "/api/jobs", strings.NewReader("{"))
	assert.Error(t, ReadJSON(req, &p))
}
