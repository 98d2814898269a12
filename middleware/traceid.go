package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-ID"

	loggerKey       = "request_logger"
	maxTraceIDBytes = 64
)

// TraceID tags every request with an id, taken from X-Trace-ID when the
// client sent a usable one, and echoes it in the response header. It also
// stores a child of log carrying the id; handlers fetch it with RequestLogger.
func TraceID(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if !validTraceID(traceID) {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Set(loggerKey, log.With(zap.String(TraceIDKey, traceID)))
		c.Header(TraceIDHeader, traceID)
		c.Next()
	}
}

// validTraceID accepts short printable ASCII ids so a client cannot inject
// control characters into log lines or response headers.
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDBytes {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetTraceID retrieves the trace ID from the Gin context.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

// RequestLogger returns the trace-scoped logger stored by TraceID, or
// fallback when the request did not pass through TraceID.
func RequestLogger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}
