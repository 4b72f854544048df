package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"study-buddy-api/internal/infrastructure/metrics"
)

const maxLogBodySize = 1 << 12 // 4 KB

type readCloser struct {
	io.Reader
	io.Closer
}

func RequestLogGin(logger *zap.Logger, mCounter *prometheus.CounterVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions ||
			c.Request.URL.Path == "/favicon.ico" ||
			strings.HasSuffix(c.Request.URL.Path, "/metrics") {
			c.Next()
			return
		}

		start := time.Now()

		var body string
		if c.Request != nil && c.Request.Body != nil {
			ct := c.GetHeader("Content-Type")
			if strings.HasPrefix(ct, "multipart/form-data") {
				body = "<multipart/form-data omitted>"
			} else {
				var buf bytes.Buffer
				limited := io.LimitReader(c.Request.Body, maxLogBodySize)
				_, _ = io.Copy(&buf, limited)
				body = buf.String()
				// the handler still gets the whole body, logged prefix first
				c.Request.Body = readCloser{
					Reader: io.MultiReader(bytes.NewReader(buf.Bytes()), c.Request.Body),
					Closer: c.Request.Body,
				}
			}
		}

		c.Next()

		if mCounter != nil {
			mCounter.WithLabelValues(metrics.AppRequests).Inc()
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("url", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("body", body),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if id := RequesterID(c); id != nil {
			fields = append(fields,
				zap.String("user_id", id.String()),
				zap.String("user_role", RequesterRole(c)),
			)
		}

		logger.Info("HTTP request", fields...)
	}
}
