package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/campushub/internal/service/notifications"
	"github.com/gin-gonic/gin"
)

const defaultInboxLimit = 20

type NotificationHandler struct {
	service notifications.NotificationUseCase
}

func NewNotificationHandler(service notifications.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.Use(RequireUser())
	router.GET("", h.inbox)
	router.POST("/seen", h.seen)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func (h *NotificationHandler) inbox(c *gin.Context) {
	inbox, err := h.service.Inbox(c.Request.Context(), userID(c), queryInt(c, "limit", defaultInboxLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]notificationResponse, 0, len(inbox.Items))
	for _, n := range inbox.Items {
		items = append(items, notificationResponse{
			ID:        n.ID,
			Subject:   n.Subject,
			Body:      n.Body,
			Status:    n.Status,
			CreatedAt: n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"total":         inbox.Total,
		"new_count":     inbox.NewCount,
	})
}

func (h *NotificationHandler) seen(c *gin.Context) {
	if err := h.service.MarkSeen(c.Request.Context(), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
