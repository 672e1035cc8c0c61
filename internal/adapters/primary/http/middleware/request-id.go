package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxLogger       = "logger"

	maxRequestIDLen = 64
)

// RequestID propagates the caller's X-Request-ID or assigns a fresh one, and attaches a
// logger carrying the id. Inbound ids longer than 64 bytes or with characters outside
// [A-Za-z0-9._-] are replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if !validRequestID(requestID) {
			requestID = uuid.New().String()
		}

		c.Set(ctxRequestID, requestID)
		c.Set(ctxLogger, log.WithField("request_id", requestID))
		c.Header(headerRequestID, requestID)

		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, or "" outside that middleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// Logger returns the request-scoped logger, falling back to the standard logger.
func Logger(c *gin.Context) *log.Entry {
	if v, ok := c.Get(ctxLogger); ok {
		if entry, ok := v.(*log.Entry); ok {
			return entry
		}
	}
	return log.NewEntry(log.StandardLogger())
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
