package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/service/resources"
	"github.com/gin-gonic/gin"
)

type ResourceHandler struct {
	service resources.ResourceUseCase
}

type searchRequest struct {
	Keyword        string `form:"q"`
	Category       string `form:"category" binding:"omitempty,category"`
	Location       string `form:"location"`
	MinCapacity    int    `form:"min_capacity"`
	AvailableFrom  string `form:"available_from"`
	AvailableUntil string `form:"available_until"`
	Status         string `form:"status"`
	Sort           string `form:"sort"`
	Page           int    `form:"page"`
}

type resourceRequest struct {
	Title                   string                `json:"title" binding:"required,notblank"`
	Description             string                `json:"description"`
	Category                string                `json:"category" binding:"required,category"`
	Location                string                `json:"location" binding:"required"`
	Capacity                *int                  `json:"capacity"`
	Equipment               string                `json:"equipment"`
	AvailabilityRules       string                `json:"availability_rules"`
	IsRestricted            bool                  `json:"is_restricted"`
	Status                  string                `json:"status"`
	Schedule                domain.WeeklySchedule `json:"availability_schedule"`
	MinBookingMinutes       int                   `json:"min_booking_minutes"`
	MaxBookingMinutes       int                   `json:"max_booking_minutes"`
	BookingIncrementMinutes int                   `json:"booking_increment_minutes"`
	BufferMinutes           int                   `json:"buffer_minutes"`
	AdvanceBookingDays      int                   `json:"advance_booking_days"`
	MinLeadTimeHours        int                   `json:"min_lead_time_hours"`
}

func (r resourceRequest) input() resources.ResourceInput {
	return resources.ResourceInput{
		Title:                   r.Title,
		Description:             r.Description,
		Category:                r.Category,
		Location:                r.Location,
		Capacity:                r.Capacity,
		Equipment:               r.Equipment,
		AvailabilityRules:       r.AvailabilityRules,
		IsRestricted:            r.IsRestricted,
		Status:                  domain.ResourceStatus(r.Status),
		Schedule:                r.Schedule,
		MinBookingMinutes:       r.MinBookingMinutes,
		MaxBookingMinutes:       r.MaxBookingMinutes,
		BookingIncrementMinutes: r.BookingIncrementMinutes,
		BufferMinutes:           r.BufferMinutes,
		AdvanceBookingDays:      r.AdvanceBookingDays,
		MinLeadTimeHours:        r.MinLeadTimeHours,
	}
}

func NewResourceHandler(service resources.ResourceUseCase) *ResourceHandler {
	return &ResourceHandler{service: service}
}

func (h *ResourceHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.search)
	router.GET("/categories", h.categories)
	router.GET("/slug/:slug", h.getBySlug)
	router.GET("/:id", h.get)
	router.POST("", RequireUser(), h.create)
	router.PUT("/:id", RequireUser(), h.update)
	router.DELETE("/:id", RequireUser(), h.delete)
}

func parseTimeParam(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func (h *ResourceHandler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	from, err := parseTimeParam("available_from", req.AvailableFrom)
	if err != nil {
		respondError(c, err)
		return
	}
	until, err := parseTimeParam("available_until", req.AvailableUntil)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.service.Search(c.Request.Context(), CurrentUser(c), resources.SearchQuery{
		Keyword:        req.Keyword,
		Category:       req.Category,
		Location:       req.Location,
		MinCapacity:    req.MinCapacity,
		AvailableFrom:  from,
		AvailableUntil: until,
		Status:         domain.ResourceStatus(req.Status),
		Sort:           req.Sort,
		Page:           req.Page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ResourceHandler) categories(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	counts, err := h.service.CategoryDistribution(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(counts))
	for _, cc := range counts {
		out = append(out, gin.H{"category": cc.Category, "count": cc.Count})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out, "known": domain.Categories})
}

func (h *ResourceHandler) get(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return
	}
	listing, err := h.service.Get(c.Request.Context(), id, CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *ResourceHandler) getBySlug(c *gin.Context) {
	listing, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"), CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *ResourceHandler) create(c *gin.Context) {
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	resource, err := h.service.Create(c.Request.Context(), CurrentUser(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resources.NewListing(resource))
}

func (h *ResourceHandler) update(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return
	}
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	resource, err := h.service.Update(c.Request.Context(), CurrentUser(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resources.NewListing(resource))
}

func (h *ResourceHandler) delete(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return
	}
	if err := h.service.Delete(c.Request.Context(), CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
