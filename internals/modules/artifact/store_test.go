package artifact

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"pagewatch/pkg/apperror"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	valid := []string{"monitor-1.png", "monitor-" + uuid.NewString() + ".png", "A.PNG"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", "../secret.png", "..png", "a/b.png", `a\b.png`, "shot.jpg", "shot.png.txt", "monitor 1.png", "%2e%2e.png"}
	for _, name := range invalid {
		err := ValidateName(name)
		require.Error(t, err, name)
		assert.True(t, apperror.IsKind(err, apperror.InvalidInput), name)
	}
}

func TestStoreSaveAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "screens")
	store, err := NewStore(dir)
	require.NoError(t, err)

	name := NameFor(uuid.New())
	require.NoError(t, store.Save(name, []byte("first")))
	require.NoError(t, store.Save(name, []byte("second")))

	data, err := store.Read(name)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = store.Read("missing.png")
	assert.True(t, apperror.IsKind(err, apperror.NotFound))

	assert.Error(t, store.Save("../escape.png", []byte("x")))
}

func TestHandlerGetScreenshot(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save("monitor-1.png", []byte{0x89, 'P', 'N', 'G'}))

	r := chi.NewRouter()
	r.Mount("/screenshots", Routes(NewHandler(store)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/screenshots/monitor-1.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store, no-cache, must-revalidate, proxy-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes())

	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/screenshots/monitor-1.jpg", http.StatusBadRequest, "Invalid file type"},
		{"/screenshots/..monitor.png", http.StatusBadRequest, "Invalid file name"},
		{"/screenshots/monitor-2.png", http.StatusNotFound, "File not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)

			var body struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body.Error.Message)
		})
	}
}
