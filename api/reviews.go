package api

import (
	"net/http"

	"github.com/Domenick1991/campushub/internal/service/reviews"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service reviews.ReviewUseCase
}

type createReviewRequest struct {
	ResourceID int64  `json:"resource_id" form:"resource_id" binding:"required,gt=0"`
	Rating     int    `json:"rating" form:"rating" binding:"required,min=1,max=5"`
	Comment    string `json:"comment" form:"comment" binding:"max=2000"`
}

func NewReviewHandler(service reviews.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", RequireUser(), h.create)
	router.POST("/:id/flag", RequireUser(), h.flag)
	router.POST("/:id/hide", RequireUser(), h.hide)
}

func (h *ReviewHandler) list(c *gin.Context) {
	resourceID, ok := paramID(c.Query("resource_id"))
	if !ok {
		badRequest(c, "resource_id is required")
		return
	}
	items, stats, err := h.service.ListByResource(c.Request.Context(), resourceID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]reviewResponse, 0, len(items))
	for i := range items {
		out = append(out, newReviewResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"reviews": out,
		"average": stats.Average,
		"count":   stats.Count,
	})
}

func (h *ReviewHandler) create(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	review, err := h.service.Create(c.Request.Context(), reviews.CreateReviewInput{
		ResourceID: req.ResourceID,
		ReviewerID: userID(c),
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReviewResponse(review))
}

func (h *ReviewHandler) flag(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid review id")
		return
	}
	var req flagRequest
	if err := c.ShouldBind(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, err.Error())
		return
	}
	if err := h.service.Flag(c.Request.Context(), id, userID(c), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ReviewHandler) hide(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid review id")
		return
	}
	if err := h.service.Hide(c.Request.Context(), id, userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
