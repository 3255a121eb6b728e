package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(newTestService(t, nil), validator.New())
	r := chi.NewRouter()
	r.Mount("/monitors", Routes(h))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHandlerCreateGetListDelete(t *testing.T) {
	router := newTestRouter(t)

	rec, env := do(t, router, http.MethodPost, "/monitors",
		`{"url":"https://example.com","interval_sec":30,"trigger_type":"contains","trigger_text":"SALE","headers":{"X-Test":"1"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)

	var created MonitorResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "active", created.Status)
	assert.Equal(t, "networkidle2", created.WaitUntil)
	assert.Equal(t, 10000, created.WaitDelayMs)
	assert.Nil(t, created.LastChecked)

	rec, env = do(t, router, http.MethodGet, "/monitors/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got MonitorResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "SALE", got.TriggerText)
	assert.Equal(t, map[string]string{"X-Test": "1"}, got.Headers)

	rec, env = do(t, router, http.MethodGet, "/monitors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListMonitorsResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Count)

	rec, _ = do(t, router, http.MethodPost, "/monitors/"+created.ID+"/check", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec, _ = do(t, router, http.MethodDelete, "/monitors/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, router, http.MethodGet, "/monitors/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Kind)
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"malformed json", http.MethodPost, "/monitors", `{"url":`},
		{"missing url", http.MethodPost, "/monitors", `{"interval_sec":30}`},
		{"contains without text", http.MethodPost, "/monitors", `{"url":"https://example.com","interval_sec":30,"trigger_type":"contains"}`},
		{"headers not an object", http.MethodPost, "/monitors", `{"url":"https://example.com","interval_sec":30,"headers":"nope"}`},
		{"interval below minimum", http.MethodPost, "/monitors", `{"url":"https://example.com","interval_sec":1}`},
		{"bad id", http.MethodGet, "/monitors/not-a-uuid", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, "invalid_input", env.Error.Kind)
		})
	}
}

func TestHandlerUpdate(t *testing.T) {
	router := newTestRouter(t)

	_, env := do(t, router, http.MethodPost, "/monitors", `{"url":"https://example.com","interval_sec":30}`)
	var created MonitorResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, env := do(t, router, http.MethodPut, "/monitors/"+created.ID,
		`{"url":"https://example.org","interval_sec":45,"wait_until":"load","wait_delay_ms":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated MonitorResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "https://example.org", updated.URL)
	assert.Equal(t, 45, updated.IntervalSec)
	assert.Equal(t, "load", updated.WaitUntil)
	assert.Equal(t, 0, updated.WaitDelayMs)
}
