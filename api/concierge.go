package api

import (
	"net/http"

	"github.com/Domenick1991/campushub/internal/service/concierge"
	"github.com/gin-gonic/gin"
)

type ConciergeHandler struct {
	service concierge.ConciergeUseCase
}

type askRequest struct {
	Question      string `json:"question" form:"question" binding:"required"`
	Category      string `json:"category" form:"category" binding:"omitempty,category"`
	PublishedOnly *bool  `json:"published_only" form:"published_only"`
}

func NewConciergeHandler(service concierge.ConciergeUseCase) *ConciergeHandler {
	return &ConciergeHandler{service: service}
}

func (h *ConciergeHandler) Register(router *gin.RouterGroup) {
	router.POST("/ask", h.ask)
	router.GET("/sources", h.sources)
}

func (h *ConciergeHandler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	// Only staff may look past the published catalogue.
	publishedOnly := true
	if CurrentUser(c).IsStaff() && req.PublishedOnly != nil {
		publishedOnly = *req.PublishedOnly
	}

	result, err := h.service.Answer(c.Request.Context(), concierge.Query{
		Question:      req.Question,
		Category:      req.Category,
		PublishedOnly: publishedOnly,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ConciergeHandler) sources(c *gin.Context) {
	sources, err := h.service.Sources(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sources)
}
