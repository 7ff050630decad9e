package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const logEventHTTP = "http"

// RequestLogger logs one line per request. Server errors are logged at warn level.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		fields := []zap.Field{
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
		}
		if sessionID, ok := BuilderSessionIDFromContext(context); ok {
			fields = append(fields, zap.String(logFieldSessionID, sessionID))
		}
		if context.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn(logEventHTTP, fields...)
			return
		}
		logger.Info(logEventHTTP, fields...)
	}
}
