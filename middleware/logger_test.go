package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	log := zap.New(core)
	r := gin.New()
	r.Use(TraceID(log), Logger(log, "/health"), Recovery(log))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	return r, logs
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLogger_Levels(t *testing.T) {
	r, logs := newLoggedRouter(zapcore.DebugLevel)

	get(r, "/ok")
	get(r, "/bad")
	get(r, "/health")

	entries := logs.FilterMessage("http").AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["trace_id"])
}

func TestLogger_QuietPathHiddenAtInfo(t *testing.T) {
	r, logs := newLoggedRouter(zapcore.InfoLevel)
	get(r, "/health")
	assert.Zero(t, logs.FilterMessage("http").Len())
}

func TestRecovery_Panic(t *testing.T) {
	r, logs := newLoggedRouter(zapcore.DebugLevel)

	w := get(r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), w.Header().Get(TraceIDHeader))
	panics := logs.FilterMessage("panic recovered").AllUntimed()
	require.Len(t, panics, 1)
	assert.Equal(t, w.Header().Get(TraceIDHeader), panics[0].ContextMap()["trace_id"])

	reqs := logs.FilterMessage("http").AllUntimed()
	require.Len(t, reqs, 1)
	assert.Equal(t, zapcore.ErrorLevel, reqs[0].Level)
}

func TestLogger_WithoutTraceIDUsesFallback(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	get(r, "/ok")
	entries := logs.FilterMessage("http").AllUntimed()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "trace_id")
}
