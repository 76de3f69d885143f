package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

// Response represents a standard JSON response
type Response struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    domainerr.Code         `json:"code,omitempty"`
	Fields  []domainerr.FieldError `json:"fields,omitempty"`
}

func statusFor(code domainerr.Code) int {
	switch code {
	case domainerr.CodeValidation:
		return http.StatusBadRequest
	case domainerr.CodeUnauthorized:
		return http.StatusUnauthorized
	case domainerr.CodeForbidden:
		return http.StatusForbidden
	case domainerr.CodeNotFound:
		return http.StatusNotFound
	case domainerr.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a domain error. INTERNAL details stay in the log.
func (s *Server) writeError(c *gin.Context, err error) {
	code := domainerr.CodeOf(err)
	resp := Response{Success: false, Code: code}

	var de *domainerr.Error
	if code == domainerr.CodeInternal || !errors.As(err, &de) {
		s.logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err)
		resp.Code = domainerr.CodeInternal
		resp.Error = "internal error"
	} else {
		resp.Error = de.Message
		resp.Fields = de.Fields
	}

	c.AbortWithStatusJSON(statusFor(resp.Code), resp)
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func invalid(field, message string) error {
	return domainerr.Validation(domainerr.FieldError{Field: field, Message: message})
}
