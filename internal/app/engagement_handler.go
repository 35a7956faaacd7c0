package app

import (
	"net/http"

	"soundrise/internal/service"
	"soundrise/internal/util"

	"github.com/gin-gonic/gin"
)

type EngagementHandler struct {
	engagementService service.EngagementService
}

func NewEngagementHandler(engagementService service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

// RecordShare records a track share
// POST /api/v1/tracks/:id/share
func (h *EngagementHandler) RecordShare(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	trackID := c.Param("id")
	if trackID == "" {
		util.BadRequest(c, "Track ID is required")
		return
	}

	if err := h.engagementService.RecordShare(userID.(string), trackID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Share recorded", nil)
}

// RecordView records a playback event
// POST /api/v1/tracks/:id/view
func (h *EngagementHandler) RecordView(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	trackID := c.Param("id")
	if trackID == "" {
		util.BadRequest(c, "Track ID is required")
		return
	}

	var req struct {
		WatchSeconds int  `json:"watch_seconds"`
		Completed    bool `json:"completed"`
	}
	// Body is optional; a bare view still counts
	_ = c.ShouldBindJSON(&req)
	if req.WatchSeconds < 0 {
		req.WatchSeconds = 0
	}

	if err := h.engagementService.RecordView(userID.(string), trackID, req.WatchSeconds, req.Completed); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "View recorded", nil)
}

// RecordDownload records a track download
// POST /api/v1/tracks/:id/download
func (h *EngagementHandler) RecordDownload(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	trackID := c.Param("id")
	if trackID == "" {
		util.BadRequest(c, "Track ID is required")
		return
	}

	if err := h.engagementService.RecordDownload(userID.(string), trackID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Download recorded", nil)
}
