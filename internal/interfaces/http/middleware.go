package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

const sessionContextKey = "quickquote.session"

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// requireSession resolves the session cookie into an entity.Session and
// stores it on the gin context
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(s.config.SessionCookie)
		if err != nil {
			respondError(c, entity.ErrUnauthenticated)
			return
		}

		session, err := s.sessions.Parse(token)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// sessionFrom returns the session set by requireSession
func sessionFrom(c *gin.Context) *entity.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	session, _ := v.(*entity.Session)
	return session
}
