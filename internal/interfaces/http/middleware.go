package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

const callerKey = "caller"

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if s.deps.Observer != nil {
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			s.deps.Observer.ObserveHTTP(method, route, status, latency)
		}

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// authMiddleware resolves the bearer token into a CallerIdentity
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			s.writeError(c, domainerr.New(domainerr.CodeUnauthorized, "missing bearer token"))
			return
		}

		caller, err := s.deps.Tokens.Identify(strings.TrimSpace(token))
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) entity.CallerIdentity {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(entity.CallerIdentity); ok {
			return caller
		}
	}
	return entity.CallerIdentity{}
}
