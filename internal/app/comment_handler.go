package app

import (
	"net/http"
	"strconv"

	"soundrise/internal/service"
	"soundrise/internal/util"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CreateComment handles comment and reply creation
// POST /api/v1/contents/:kind/:id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
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

	var req struct {
		Body     string  `json:"body" binding:"required"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.CreateComment(userID.(string), kind, contentID, service.CreateCommentInput{
		Body:     req.Body,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Comment created successfully", gin.H{"comment": comment})
}

// ListComments handles listing a content item's comment thread
// GET /api/v1/contents/:kind/:id/comments?sort=newest&page=1&limit=20
func (h *CommentHandler) ListComments(c *gin.Context) {
	viewerID := ""
	if userID, exists := c.Get("userID"); exists {
		viewerID = userID.(string)
	}

	kind := c.Param("kind")
	contentID := c.Param("id")
	if contentID == "" {
		util.BadRequest(c, "Content ID is required")
		return
	}

	sort := c.DefaultQuery("sort", "newest")
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}

	result, err := h.commentService.ListComments(viewerID, kind, contentID, sort, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comments retrieved successfully", result)
}

// UpdateComment handles editing a comment
// PUT /api/v1/comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	commentID := c.Param("id")
	if commentID == "" {
		util.BadRequest(c, "Comment ID is required")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.UpdateComment(userID.(string), commentID, req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment updated successfully", gin.H{"comment": comment})
}

// DeleteComment handles deleting a comment (author only; moderators hide)
// DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	commentID := c.Param("id")
	if commentID == "" {
		util.BadRequest(c, "Comment ID is required")
		return
	}

	if err := h.commentService.DeleteComment(userID.(string), commentID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment deleted successfully", nil)
}

// HideComment handles hiding a comment (moderator only)
// POST /api/v1/comments/:id/hide
func (h *CommentHandler) HideComment(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}
	role := c.GetString("userRole")

	commentID := c.Param("id")
	if commentID == "" {
		util.BadRequest(c, "Comment ID is required")
		return
	}

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.commentService.HideComment(userID.(string), role, commentID, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment hidden", nil)
}

// ReportComment handles reporting a comment
// POST /api/v1/comments/:id/report
func (h *CommentHandler) ReportComment(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	commentID := c.Param("id")
	if commentID == "" {
		util.BadRequest(c, "Comment ID is required")
		return
	}

	if err := h.commentService.ReportComment(userID.(string), commentID); err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment reported", nil)
}

// ReactToComment toggles a reaction on a comment
// POST /api/v1/comments/:id/react
func (h *CommentHandler) ReactToComment(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	commentID := c.Param("id")
	if commentID == "" {
		util.BadRequest(c, "Comment ID is required")
		return
	}

	var req struct {
		Reaction string `json:"reaction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.ReactToComment(userID.(string), commentID, req.Reaction)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Reaction updated", gin.H{"comment": comment})
}
