package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"authbridge/internal/domain"
	"authbridge/internal/logger"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: msg, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: msg, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{Success: false, Message: msg, Code: code})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error"
	}
	return statusForKind(de.Kind), de.Code, de.Message
}

func statusForKind(k domain.Kind) int {
	switch k {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnprocessable:
		return http.StatusUnprocessableEntity
	case domain.KindTooManyRequests:
		return http.StatusTooManyRequests
	case domain.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		logger.From(c.Request.Context()).Error("request failed",
			logger.Status(status), zap.String("code", code), logger.Err(err))
	}
	RespondError(c, status, code, msg)
}
