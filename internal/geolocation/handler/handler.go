package handler

import (
	"tel_handoff_backend/internal/geolocation/service"
	"tel_handoff_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the caller's detected location.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
}

// Me handles GET /api/v1/geolocation/me
func (h *Handler) Me(c *gin.Context) {
	loc, err := h.svc.Locate(c.Request.Context(), c.ClientIP())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, loc)
}
