package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Domenick1991/campushub/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swagger.json"), []byte(`{"swagger":"2.0"}`), 0o600))

	cfg := &config.Config{HTTP: config.HTTPConfig{
		SwaggerDir:     dir,
		AllowedOrigins: []string{"http://localhost:5173"},
	}}
	router, err := NewRouter(cfg, Services{}, zap.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", http.StatusOK},
		{"swagger document", http.MethodGet, "/docs/swagger.json", http.StatusOK},
		{"bookings need a user", http.MethodGet, "/api/v1/bookings", http.StatusUnauthorized},
		{"feed needs a user", http.MethodGet, "/api/v1/messages/threads/1/feed?after_id=0", http.StatusUnauthorized},
		{"admin needs a user", http.MethodGet, "/api/v1/admin/logs", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v1/timetable", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{HTTP: config.HTTPConfig{AllowedOrigins: []string{"http://localhost:5173"}}}
	router, err := NewRouter(cfg, Services{}, zap.NewNop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bookings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
