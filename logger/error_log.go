package logger

import (
	"github.com/gin-gonic/gin"
)

// LogHTTPError logs an error that occurred while serving an HTTP request,
// attaching the request path, method, status, and client IP.
func LogHTTPError(c *gin.Context, err error, status int, msg string) {
	GetLogger().Errorw(msg,
		"error", err,
		"status", status,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"client_ip", c.ClientIP(),
	)
}
