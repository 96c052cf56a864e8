package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/campushub/internal/domain"
	"github.com/Domenick1991/campushub/internal/service/admin"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service admin.AdminUseCase
}

func NewAdminHandler(service admin.AdminUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.Use(RequireUser())
	router.GET("/users", h.users)
	router.POST("/users/:id/suspend", h.suspend)
	router.POST("/users/:id/unsuspend", h.unsuspend)
	router.GET("/logs", h.logs)
}

func (h *AdminHandler) users(c *gin.Context) {
	list, err := h.service.ListUsers(c.Request.Context(), userID(c), queryInt(c, "limit", 50), queryInt(c, "offset", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for i := range list {
		out = append(out, newUserResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (h *AdminHandler) suspend(c *gin.Context) {
	h.setSuspended(c, h.service.SuspendUser)
}

func (h *AdminHandler) unsuspend(c *gin.Context) {
	h.setSuspended(c, h.service.UnsuspendUser)
}

func (h *AdminHandler) setSuspended(c *gin.Context, action func(ctx context.Context, adminID, userID int64) (*domain.User, error)) {
	id, ok := paramID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid user id")
		return
	}
	user, err := action(c.Request.Context(), userID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h *AdminHandler) logs(c *gin.Context) {
	entries, err := h.service.ListLogs(c.Request.Context(), userID(c), queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]adminLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, adminLogResponse{
			ID:          e.ID,
			AdminID:     e.AdminID,
			Action:      e.Action,
			TargetTable: e.TargetTable,
			Details:     e.Details,
			CreatedAt:   e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"logs": out})
}
