package handlers

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

	"github.com/soundprediction/estratto/pkg/types"
)

type stubExtractor struct {
	healthErr error
}

func (s *stubExtractor) Extract(context.Context, string, string, []types.Document) (map[string][]types.Answer, error) {
	return nil, errors.New("not implemented")
}

func (s *stubExtractor) FormatResults(map[string][]types.Answer, []types.Document, string) map[string]types.FormattedResult {
	return nil
}

func (s *stubExtractor) Health(context.Context) error { return s.healthErr }

func (s *stubExtractor) Close() error { return nil }

func performRequest(handler gin.HandlerFunc, method, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Handle(method, path, handler)

	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	handler := NewHealthHandler(&stubExtractor{})
	w := performRequest(handler.HealthCheck, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "estratto", response["service"])
	assert.Contains(t, response, "timestamp")
	assert.Contains(t, response, "version")
}

func TestLivenessCheck(t *testing.T) {
	handler := NewHealthHandler(&stubExtractor{})
	w := performRequest(handler.LivenessCheck, http.MethodGet, "/live")

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "alive", response["status"])
}

func TestReadinessCheck(t *testing.T) {
	handler := NewHealthHandler(&stubExtractor{})
	w := performRequest(handler.ReadinessCheck, http.MethodGet, "/ready")

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ready", response["status"])
}

func TestReadinessCheckScorerDown(t *testing.T) {
	handler := NewHealthHandler(&stubExtractor{healthErr: errors.New("scorer unreachable")})
	w := performRequest(handler.ReadinessCheck, http.MethodGet, "/ready")

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "not_ready", response["status"])
}

func TestReadinessCheckNilExtractor(t *testing.T) {
	handler := NewHealthHandler(nil)
	w := performRequest(handler.ReadinessCheck, http.MethodGet, "/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDetailedHealthCheck(t *testing.T) {
	handler := NewHealthHandler(&stubExtractor{})
	w := performRequest(handler.DetailedHealthCheck, http.MethodGet, "/health/detailed")

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Contains(t, response, "build_info")
	checks, ok := response["checks"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, checks, "scorer")
	assert.Contains(t, checks, "system")
}
