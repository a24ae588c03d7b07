package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowgate/flowgate/internal/models"
	"github.com/flowgate/flowgate/internal/relay"
)

// createKey handles POST /api/v1/keys
func (h *Handler) createKey(c echo.Context) error {
	var req models.CreateKeyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
	}

	if req.Owner == "" || req.Name == "" || req.Value == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "missing_fields",
			Message: "Owner, name and value are required",
			Code:    http.StatusBadRequest,
		})
	}

	resp, err := h.service.CreateKey(req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "key_creation_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "API key stored",
		Data:    resp,
	})
}

// getKey handles GET /api/v1/keys/:id
func (h *Handler) getKey(c echo.Context) error {
	id := c.Param("id")

	resp, err := h.service.GetKey(id)
	if err != nil {
		if errors.Is(err, relay.ErrCredentialNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "key_not_found",
				Message: fmt.Sprintf("Key '%s' not found", id),
				Code:    http.StatusNotFound,
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "key_lookup_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    resp,
	})
}

// listKeys handles GET /api/v1/keys
func (h *Handler) listKeys(c echo.Context) error {
	keys, err := h.service.ListKeys(c.QueryParam("owner"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "list_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    keys,
	})
}

// deleteKey handles DELETE /api/v1/keys/:id
func (h *Handler) deleteKey(c echo.Context) error {
	id := c.Param("id")

	if err := h.service.DeleteKey(id); err != nil {
		if errors.Is(err, relay.ErrCredentialNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "key_not_found",
				Message: fmt.Sprintf("Key '%s' not found", id),
				Code:    http.StatusNotFound,
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "key_deletion_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "API key deleted",
	})
}
