package app

import (
	"errors"
	"net/http"

	"soundrise/internal/service"
	"soundrise/internal/util"

	"github.com/gin-gonic/gin"
)

type ToggleHandler struct {
	toggleService service.ToggleService
}

func NewToggleHandler(toggleService service.ToggleService) *ToggleHandler {
	return &ToggleHandler{toggleService: toggleService}
}

// Toggle handles the fast-path toggle
// POST /api/v1/interactions/:kind/:id/toggle
func (h *ToggleHandler) Toggle(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	kind := c.Param("kind")
	contentID := c.Param("id")
	if contentID == "" {
		util.BadRequest(c, "Content ID is required")
		return
	}

	result, err := h.toggleService.Toggle(userID.(string), kind, contentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Toggle applied", result)
}

// ToggleDurable handles the durable-path toggle, for clients that want the
// committed result instead of the optimistic one.
// POST /api/v1/interactions/:kind/:id/toggle/durable
func (h *ToggleHandler) ToggleDurable(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	kind := c.Param("kind")
	contentID := c.Param("id")
	if contentID == "" {
		util.BadRequest(c, "Content ID is required")
		return
	}

	liked, err := h.toggleService.ToggleDurable(userID.(string), kind, contentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Toggle committed", gin.H{
		"content_id": contentID,
		"liked":      liked,
	})
}

// GetStatus reports whether the caller currently has the toggle on
// GET /api/v1/interactions/:kind/:id/status
func (h *ToggleHandler) GetStatus(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	kind := c.Param("kind")
	contentID := c.Param("id")
	if contentID == "" {
		util.BadRequest(c, "Content ID is required")
		return
	}

	liked, err := h.toggleService.HasToggled(userID.(string), kind, contentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Status retrieved", gin.H{
		"content_id": contentID,
		"liked":      liked,
	})
}

// respondServiceError maps service sentinel errors onto HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedKind),
		errors.Is(err, service.ErrEmptyBody),
		errors.Is(err, service.ErrInvalidSort),
		errors.Is(err, service.ErrInvalidReaction),
		errors.Is(err, service.ErrMissingContentIDs),
		errors.Is(err, service.ErrCommentsDisabled):
		util.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrContentNotFound),
		errors.Is(err, service.ErrCommentNotFound):
		util.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrOwnComment):
		util.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrAlreadyReported):
		util.ErrorResponse(c, http.StatusConflict, err.Error(), nil)
	default:
		util.InternalServerError(c, "Something went wrong")
	}
}
