package app

import (
	"net/http"

	"soundrise/internal/service"
	"soundrise/internal/util"

	"github.com/gin-gonic/gin"
)

type MetadataHandler struct {
	metadataService service.MetadataService
}

func NewMetadataHandler(metadataService service.MetadataService) *MetadataHandler {
	return &MetadataHandler{metadataService: metadataService}
}

// BatchMetadata returns counters and viewer flags for a batch of content IDs.
// Anonymous callers get counters with all flags false.
// POST /api/v1/metadata/:kind
func (h *MetadataHandler) BatchMetadata(c *gin.Context) {
	viewerID := ""
	if userID, exists := c.Get("userID"); exists {
		viewerID = userID.(string)
	}

	var params struct {
		Kind string `uri:"kind" binding:"required,contentkind"`
	}
	if err := c.ShouldBindUri(&params); err != nil {
		util.BadRequest(c, "Unsupported content kind")
		return
	}

	var req struct {
		ContentIDs []string `json:"content_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	result, err := h.metadataService.BatchMetadata(viewerID, params.Kind, req.ContentIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Metadata retrieved successfully", gin.H{"items": result})
}
