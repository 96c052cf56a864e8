package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	ResourceID     int64     `json:"resource_id" binding:"required,gt=0"`
	Start          time.Time `json:"start" binding:"required"`
	End            time.Time `json:"end" binding:"required,gtfield=Start"`
	RecurrenceRule string    `json:"recurrence_rule"`
	JoinWaitlist   bool      `json:"join_waitlist"`
}

type decisionRequest struct {
	Notes string `json:"notes" form:"notes" binding:"max=1000"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.Use(RequireUser())
	router.POST("", h.create)
	router.GET("", h.mine)
	router.GET("/stats", h.stats)
	router.GET("/pending", h.pending)
	router.GET("/resource/:id", h.forResource)
	router.GET("/:id", h.get)
	router.POST("/:id/approve", h.approve)
	router.POST("/:id/reject", h.reject)
	router.POST("/:id/cancel", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		ResourceID:     req.ResourceID,
		RequesterID:    userID(c),
		Start:          req.Start,
		End:            req.End,
		RecurrenceRule: req.RecurrenceRule,
		JoinWaitlist:   req.JoinWaitlist,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Waitlisted != nil {
		c.JSON(http.StatusAccepted, gin.H{
			"bookings":   newBookingList(result.Bookings),
			"waitlisted": newWaitlistResponse(result.Waitlisted),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bookings": newBookingList(result.Bookings)})
}

func (h *BookingHandler) mine(c *gin.Context) {
	bookings, err := h.service.ListMyBookings(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": newBookingList(bookings)})
}

func (h *BookingHandler) stats(c *gin.Context) {
	stats, err := h.service.DashboardStats(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *BookingHandler) pending(c *gin.Context) {
	bookings, err := h.service.PendingForOwner(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": newBookingList(bookings)})
}

func (h *BookingHandler) forResource(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid resource id")
		return
	}
	bookings, err := h.service.ListResourceBookings(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": newBookingList(bookings)})
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid booking id")
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) approve(c *gin.Context) {
	h.decide(c, h.service.ApproveBooking)
}

func (h *BookingHandler) reject(c *gin.Context) {
	h.decide(c, h.service.RejectBooking)
}

type decisionFunc func(ctx context.Context, input booking.DecisionInput) (*domain.Booking, error)

func (h *BookingHandler) decide(c *gin.Context, action decisionFunc) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid booking id")
		return
	}
	var req decisionRequest
	if err := c.ShouldBind(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, err.Error())
		return
	}

	b, err := action(c.Request.Context(), booking.DecisionInput{
		BookingID: id,
		ActorID:   userID(c),
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid booking id")
		return
	}
	b, err := h.service.CancelBooking(c.Request.Context(), id, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}
