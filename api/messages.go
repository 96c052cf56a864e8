package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/campushub/internal/service/messaging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	feedRateLimit  = 30
	feedRateWindow = time.Minute
)

// RateLimiter is a fixed-window request counter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

type MessageHandler struct {
	service messaging.MessagingUseCase
	limiter RateLimiter
	logger  *zap.Logger
}

type startThreadRequest struct {
	ResourceID  int64  `json:"resource_id" form:"resource_id" binding:"required,gt=0"`
	RecipientID int64  `json:"recipient_id" form:"recipient_id"`
	Content     string `json:"content" form:"content"`
}

type replyRequest struct {
	Content string `json:"content" form:"content"`
}

type flagRequest struct {
	Reason string `json:"reason" form:"reason" binding:"max=500"`
}

// NewMessageHandler wires the thread endpoints. limiter may be nil.
func NewMessageHandler(service messaging.MessagingUseCase, limiter RateLimiter, logger *zap.Logger) *MessageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageHandler{service: service, limiter: limiter, logger: logger}
}

func (h *MessageHandler) Register(router *gin.RouterGroup) {
	router.Use(RequireUser())
	router.GET("/threads", h.listThreads)
	router.POST("/threads", h.startThread)
	router.GET("/threads/:id", h.getThread)
	router.GET("/threads/:id/feed", h.feed)
	router.POST("/threads/:id/reply", h.reply)
	router.POST("/:id/flag", h.flag)
	router.POST("/:id/hide", h.hide)
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func (h *MessageHandler) listThreads(c *gin.Context) {
	threads, err := h.service.ListThreads(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]threadResponse, 0, len(threads))
	for i := range threads {
		out = append(out, newThreadResponse(&threads[i]))
	}
	c.JSON(http.StatusOK, gin.H{"threads": out})
}

func (h *MessageHandler) startThread(c *gin.Context) {
	var req startThreadRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	thread, first, err := h.service.StartThread(c.Request.Context(), messaging.StartThreadInput{
		SenderID:    userID(c),
		ResourceID:  req.ResourceID,
		RecipientID: req.RecipientID,
		Content:     req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"thread": newThreadResponse(thread), "message": first})
}

func (h *MessageHandler) getThread(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid thread id")
		return
	}
	ctx := c.Request.Context()
	thread, err := h.service.GetThread(ctx, id, userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.service.Feed(ctx, id, userID(c), 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": newThreadResponse(thread), "messages": feedItems(items)})
}

func feedItems(items []messaging.FeedItem) []messaging.FeedItem {
	if items == nil {
		return []messaging.FeedItem{}
	}
	return items
}

func (h *MessageHandler) feed(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid thread id")
		return
	}
	var afterID int64
	if raw := c.Query("after_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "after_id must be an integer")
			return
		}
		afterID = max(v, 0)
	}

	if !h.allow(c, id) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	items, err := h.service.Feed(c.Request.Context(), id, userID(c), afterID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": feedItems(items)})
}

// allow fails open when the limiter itself errors.
func (h *MessageHandler) allow(c *gin.Context, threadID int64) bool {
	if h.limiter == nil {
		return true
	}
	key := fmt.Sprintf("feed:%d:%d", userID(c), threadID)
	ok, err := h.limiter.Allow(c.Request.Context(), key, feedRateLimit, feedRateWindow)
	if err != nil {
		h.logger.Warn("feed rate limiter unavailable", zap.Error(err))
		return true
	}
	return ok
}

func (h *MessageHandler) reply(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid thread id")
		return
	}
	threadURL := fmt.Sprintf("/messages/threads/%d", id)

	var req replyRequest
	if err := c.ShouldBind(&req); err != nil {
		if wantsJSON(c) {
			badRequest(c, err.Error())
			return
		}
		c.Redirect(http.StatusSeeOther, threadURL+"?error="+url.QueryEscape("invalid form"))
		return
	}

	item, err := h.service.Reply(c.Request.Context(), id, userID(c), req.Content)
	if !wantsJSON(c) {
		if err != nil {
			c.Redirect(http.StatusSeeOther, threadURL+"?error="+url.QueryEscape(publicMessage(err)))
			return
		}
		c.Redirect(http.StatusSeeOther, threadURL)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": item})
}

func (h *MessageHandler) flag(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid message id")
		return
	}
	var req flagRequest
	if err := c.ShouldBind(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, err.Error())
		return
	}
	if err := h.service.FlagMessage(c.Request.Context(), id, userID(c), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *MessageHandler) hide(c *gin.Context) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid message id")
		return
	}
	if err := h.service.HideMessage(c.Request.Context(), id, userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
