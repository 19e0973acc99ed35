package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTelemetryExportsCounters(t *testing.T) {
	provider, handler, err := InitTelemetry("grocery-store-test")
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	counter, err := provider.Meter("test").Int64Counter("store.test.events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", PrometheusHandler(handler))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "store_test_events")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestPrometheusHandlerWithoutRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", PrometheusHandler(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestInitLogger(t *testing.T) {
	for _, env := range []string{"production", "development", "test"} {
		logger, err := InitLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, logger, env)
	}
}
