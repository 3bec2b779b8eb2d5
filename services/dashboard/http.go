package dashboard

import (
	"net/http"

	"clinic-adminplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/dashboard", h.summary)
	r.GET("/database-stats", h.databaseStats)
}

func (h *Handler) summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) databaseStats(c *gin.Context) {
	stats, err := h.svc.DatabaseStats(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": stats})
}
