package system

import (
	"net/http"

	"clinic-adminplane/pkg/errutil"
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
	r.GET("/check-setup", h.checkSetup)
	r.POST("/quick-setup-adeka", h.quickSetup)
	r.POST("/make-admin", h.makeAdmin)
	r.POST("/cleanup-corrupt-data", h.cleanupCorrupt)
	r.POST("/nuclear-cleanup", h.nuclearCleanup)
}

func (h *Handler) checkSetup(c *gin.Context) {
	status, err := h.svc.CheckSetup(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "complete": status.Complete()})
}

func (h *Handler) quickSetup(c *gin.Context) {
	status, err := h.svc.QuickSetup(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "complete": status.Complete()})
}

func (h *Handler) makeAdmin(c *gin.Context) {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	user, err := h.svc.MakeAdmin(c.Request.Context(), in.Email)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) cleanupCorrupt(c *gin.Context) {
	report, err := h.svc.CleanupCorrupt(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) nuclearCleanup(c *gin.Context) {
	removed, err := h.svc.NuclearCleanup(c.Request.Context(), middleware.CallerRole(c))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
