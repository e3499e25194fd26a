package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"

// requestID tags every request with an ID, honoring one supplied by
// the caller, and echoes it back in the response headers.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger logs one structured line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("request",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// corsMiddleware opens the API to everything in debug mode and to the
// configured hosts (both schemes) in production.
func corsMiddleware(cfg Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}

	if cfg.Debug {
		corsCfg.AllowAllOrigins = true
		return cors.New(corsCfg)
	}

	hosts := cfg.AllowedHosts
	if len(hosts) == 0 {
		// cors.New rejects an empty origin list.
		hosts = []string{"localhost", "127.0.0.1"}
	}
	origins := make([]string, 0, 2*len(hosts))
	for _, host := range hosts {
		origins = append(origins, "https://"+host, "http://"+host)
	}
	corsCfg.AllowOrigins = origins
	corsCfg.AllowCredentials = true
	return cors.New(corsCfg)
}
