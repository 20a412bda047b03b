// Package httperr renders the single error response shape used by every
// endpoint: {"success":false,"message":...}. Internal detail is logged
// server-side and never echoed to clients.
package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Response is the error body shared by all endpoints.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respond(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Response{Success: false, Message: message})
}

// BadRequest sends a 400 response.
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	respond(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Not authorized to access this route"
	}
	respond(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 response.
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	respond(c, http.StatusForbidden, message)
}

// NotFound sends a 404 response.
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	respond(c, http.StatusNotFound, message)
}

// Conflict sends a 409 response.
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	respond(c, http.StatusConflict, message)
}

// PayloadTooLarge sends a 413 response.
func PayloadTooLarge(c *gin.Context, message string) {
	if message == "" {
		message = "File too large (max 5MB)"
	}
	respond(c, http.StatusRequestEntityTooLarge, message)
}

// Internal sends a 500 response and logs the underlying error.
func Internal(c *gin.Context, err error) {
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
	}
	respond(c, http.StatusInternalServerError, "Server Error")
}
