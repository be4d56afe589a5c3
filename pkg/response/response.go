package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shareit/service-booking/pkg/domain"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Success writes data with 200.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created writes data with 201.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// BadRequest writes a 400 with msg.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{Error: msg})
}

// Error maps err to an HTTP status. Errors that are not domain errors are hidden behind a generic 500.
func Error(c *gin.Context, err error) {
	kind, ok := domain.KindOf(err)
	if !ok {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(StatusFor(kind), ErrorBody{Error: err.Error()})
}

// StatusFor returns the HTTP status for a domain error kind.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConditionsNotMet, domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindInvalidOperation:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
