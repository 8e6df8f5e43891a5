// Package handlers exposes the HTTP surface over the domain operations.
// Each handler is a constructor taking the narrow interface it needs, so
// tests can swap in stubs.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codehornets/julep/internal/logger"
	"github.com/codehornets/julep/internal/store"
)

// ErrorResponse defines the structure for an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// developerHeader carries the caller's developer scope on every request.
const developerHeader = "X-Developer-Id"

func developerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(developerHeader)
	if raw == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_developer_id",
			Message: developerHeader + " header is required",
			Code:    http.StatusBadRequest,
		})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_developer_id",
			Message: developerHeader + " must be a valid UUID",
			Code:    http.StatusBadRequest,
		})
		return uuid.Nil, false
	}
	return id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_" + name,
			Message: name + " must be a valid UUID",
			Code:    http.StatusBadRequest,
		})
		return uuid.Nil, false
	}
	return id, true
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_" + name,
			Message: name + " must be an integer",
			Code:    http.StatusBadRequest,
		})
		return 0, false
	}
	return n, true
}

// writeError renders a domain operation failure. Translated domain errors
// carry their own status; anything else is an internal error and gets
// logged with its cause.
func writeError(c *gin.Context, err error) {
	var de *store.DomainError
	if errors.As(err, &de) {
		c.JSON(de.Status, ErrorResponse{
			Error:   http.StatusText(de.Status),
			Message: de.Message,
			Code:    de.Status,
		})
		return
	}

	var me *store.MaterializationError
	if errors.As(err, &me) {
		logger.Logger.Error().Err(err).Msg("row materialization failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "materialization_error",
			Message: "failed to materialize query result",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	logger.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an unexpected error occurred",
		Code:    http.StatusInternalServerError,
	})
}
