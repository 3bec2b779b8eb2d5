package voucher

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
	g := r.Group("/vouchers")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/stats", h.stats)
	g.GET("/usage", h.usage)
	g.POST("/validate", h.validate)
	g.POST("/use", h.redeem)
	g.POST("/generate-per-patient", h.generatePerPatient)
	g.POST("/cleanup", h.cleanup)
	g.GET("/:id", h.get)
	g.PATCH("/:id/status", h.setStatus)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	v, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, v)
}

func (h *Handler) list(c *gin.Context) {
	vouchers, err := h.svc.List(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}

func (h *Handler) get(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

func (h *Handler) validate(c *gin.Context) {
	var in ValidateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := h.svc.Validate(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) redeem(c *gin.Context) {
	var in RedeemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	usage, err := h.svc.Redeem(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, usage)
}

func (h *Handler) setStatus(c *gin.Context) {
	var in struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("is_active is required", errutil.WithErr(err)))
		return
	}

	v, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), *in.IsActive)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) usage(c *gin.Context) {
	usages, err := h.svc.UsageLog(c.Request.Context(), c.Query("voucher_id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usage": usages})
}

func (h *Handler) generatePerPatient(c *gin.Context) {
	var in struct {
		VoucherID string       `json:"voucher_id" binding:"required"`
		Patients  []PatientRef `json:"patients" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("voucher_id and patients are required", errutil.WithErr(err)))
		return
	}

	codes, err := h.svc.GeneratePerPatient(c.Request.Context(), in.VoucherID, in.Patients)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"codes": codes})
}

func (h *Handler) delete(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), force, middleware.CallerRole(c)); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) cleanup(c *gin.Context) {
	removed, err := h.svc.Cleanup(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
