package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/service"
)

type pingerStub struct {
	err error
}

func (p pingerStub) PingContext(ctx context.Context) error {
	return p.err
}

func serveMetricsRoute(handle gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handle(c)
	return w
}

func TestMetricsHandlerReady(t *testing.T) {
	ok := NewMetricsHandler(nil, pingerStub{})
	assert.Equal(t, http.StatusOK, serveMetricsRoute(ok.Ready).Code)

	failing := NewMetricsHandler(nil, pingerStub{err: errors.New("connection refused")})
	w := serveMetricsRoute(failing.Ready)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")

	missing := NewMetricsHandler(nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serveMetricsRoute(missing.Ready).Code)
}

func TestMetricsHandlerHealth(t *testing.T) {
	handler := NewMetricsHandler(nil, nil)
	w := serveMetricsRoute(handler.Health)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordConflict("decide")
	metrics.ObserveHTTPRequest(http.MethodGet, "/documents", http.StatusOK, 10*time.Millisecond)

	w := serveMetricsRoute(NewMetricsHandler(metrics, nil).Prometheus)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	disabled := NewMetricsHandler(nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, serveMetricsRoute(disabled.Prometheus).Code)
}
