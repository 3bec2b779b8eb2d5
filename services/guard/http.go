package guard

import (
	"net/http"

	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

const (
	headerUserEmail = "X-User-Email"
	headerUserType  = "X-User-Type"
)

func callerFrom(c *gin.Context) Caller {
	return Caller{
		UserID: c.GetHeader(middleware.HeaderUserID),
		Email:  c.GetHeader(headerUserEmail),
		Role:   c.GetHeader(middleware.HeaderUserRole),
		Type:   c.GetHeader(headerUserType),
	}
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/guard")
	{
		g.GET("/status", h.status)
		g.POST("/authenticate", h.authenticate)
		g.POST("/logout", h.logout)
		g.GET("/config", h.getConfig)
		g.PUT("/config", h.updateConfig)
	}
}

func (h *Handler) status(c *gin.Context) {
	result, err := h.svc.Status(c.Request.Context(), callerFrom(c), c.Query("page"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) authenticate(c *gin.Context) {
	var in AuthenticateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := h.svc.Authenticate(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) logout(c *gin.Context) {
	var in struct {
		Page string `json:"page"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), callerFrom(c), in.Page); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

func (h *Handler) getConfig(c *gin.Context) {
	settings, err := h.svc.GetSettings(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) updateConfig(c *gin.Context) {
	var in UpdateConfigInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	settings, err := h.svc.UpdateConfig(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
