package api

import (
	"net/http"

	"github.com/Domenick1991/campushub/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type WaitlistHandler struct {
	service booking.WaitlistUseCase
}

func NewWaitlistHandler(service booking.WaitlistUseCase) *WaitlistHandler {
	return &WaitlistHandler{service: service}
}

func (h *WaitlistHandler) Register(router *gin.RouterGroup) {
	router.Use(RequireUser())
	router.GET("", h.mine)
	router.POST("", h.join)
	router.DELETE("/:id", h.leave)
}

func (h *WaitlistHandler) mine(c *gin.Context) {
	entries, err := h.service.ListMyWaitlist(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]waitlistResponse, 0, len(entries))
	for i := range entries {
		out = append(out, newWaitlistResponse(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"entries": out})
}

func (h *WaitlistHandler) join(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	entry, err := h.service.JoinWaitlist(c.Request.Context(), booking.CreateBookingInput{
		ResourceID:     req.ResourceID,
		RequesterID:    userID(c),
		Start:          req.Start,
		End:            req.End,
		RecurrenceRule: req.RecurrenceRule,
		JoinWaitlist:   true,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newWaitlistResponse(entry))
}

func (h *WaitlistHandler) leave(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid waitlist entry id")
		return
	}
	if err := h.service.LeaveWaitlist(c.Request.Context(), id, userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
