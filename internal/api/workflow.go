package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/flowgate/flowgate/internal/models"
	"github.com/flowgate/flowgate/internal/relay"
	"github.com/flowgate/flowgate/pkg/webhook"
)

// Handler handles workflow and API key endpoints
type Handler struct {
	service *relay.Service
}

// trigger handles POST /api/v1/workflows/trigger
func (h *Handler) trigger(c echo.Context) error {
	var req models.TriggerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
	}

	if req.Payload == nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "missing_payload",
			Message: "Payload is required",
			Code:    http.StatusBadRequest,
		})
	}

	resp, err := h.service.Trigger(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "trigger_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.APIResponse{
		Success: resp.Status != models.RunStatusFailed,
		Message: "Workflow triggered",
		Data:    resp,
		Error:   resp.Error,
	})
}

// triggerFile handles POST /api/v1/workflows/trigger-file
func (h *Handler) triggerFile(c echo.Context) error {
	mf, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Multipart form body is required",
			Code:    http.StatusBadRequest,
		})
	}

	// Rebuild the submission for the webhook: an endpoint override travels
	// as a plain field, everything else passes through.
	var endpoint string
	form := webhook.NewForm()
	for name, values := range mf.Value {
		for _, value := range values {
			if name == "endpoint" {
				endpoint = value
				continue
			}
			if err := form.AddField(name, value); err != nil {
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:   "form_encoding_failed",
					Message: err.Error(),
					Code:    http.StatusInternalServerError,
				})
			}
		}
	}

	for name, files := range mf.File {
		for _, fh := range files {
			src, err := fh.Open()
			if err != nil {
				return c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Error:   "invalid_file",
					Message: fmt.Sprintf("Cannot read uploaded file %q", fh.Filename),
					Code:    http.StatusBadRequest,
				})
			}
			addErr := form.AddFile(name, fh.Filename, src)
			src.Close()
			if addErr != nil {
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
					Error:   "form_encoding_failed",
					Message: addErr.Error(),
					Code:    http.StatusInternalServerError,
				})
			}
		}
	}

	resp, err := h.service.TriggerForm(c.Request().Context(), form, endpoint)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "trigger_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.APIResponse{
		Success: resp.Status != models.RunStatusFailed,
		Message: "Workflow triggered",
		Data:    resp,
		Error:   resp.Error,
	})
}

// getRun handles GET /api/v1/workflows/runs/:run_id
func (h *Handler) getRun(c echo.Context) error {
	runID := c.Param("run_id")

	resp, err := h.service.GetRun(runID)
	if err != nil {
		if errors.Is(err, relay.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "run_not_found",
				Message: fmt.Sprintf("Run '%s' not found", runID),
				Code:    http.StatusNotFound,
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "status_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    resp,
	})
}

// awaitRun handles POST /api/v1/workflows/runs/:run_id/await
func (h *Handler) awaitRun(c echo.Context) error {
	runID := c.Param("run_id")

	resp, err := h.service.Await(c.Request().Context(), runID)
	if err != nil {
		if errors.Is(err, relay.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "run_not_found",
				Message: fmt.Sprintf("Run '%s' not found", runID),
				Code:    http.StatusNotFound,
			})
		}
		if errors.Is(err, relay.ErrNoJobID) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "not_pollable",
				Message: "Run has no job identifier to poll",
				Code:    http.StatusBadRequest,
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "await_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.APIResponse{
		Success: resp.Status == models.RunStatusSucceeded,
		Data:    resp,
		Error:   resp.Error,
	})
}

// listRuns handles GET /api/v1/workflows/runs
func (h *Handler) listRuns(c echo.Context) error {
	runs, err := h.service.ListRuns()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "list_failed",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    runs,
	})
}
