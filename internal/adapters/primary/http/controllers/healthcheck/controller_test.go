package healthcheckController

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mel762/telegramTarorApp/internal/pkg/logger"
)

func serve(checks map[string]Pinger, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(checks, logger.Discard()).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(nil, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	rec := serve(map[string]Pinger{"postgres": ok, "redis": ok}, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(map[string]Pinger{"postgres": ok, "redis": down}, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Unavailable []string `json:"unavailable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"redis"}, body.Unavailable)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(nil, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
