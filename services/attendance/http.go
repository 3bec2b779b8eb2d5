package attendance

import (
	"errors"
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

// Register mounts one attendance surface per person type. Both surfaces
// share the same handlers; only the stored person_type differs.
func (h *Handler) Register(r gin.IRouter) {
	doctor := r.Group("/attendance")
	{
		doctor.POST("", h.submit(PersonDoctor))
		doctor.GET("", h.list(PersonDoctor))
		doctor.GET("/status", h.status(PersonDoctor))
	}

	employee := r.Group("/employee-attendance")
	{
		employee.POST("", h.submit(PersonEmployee))
		employee.GET("", h.list(PersonEmployee))
		employee.GET("/status", h.status(PersonEmployee))
	}
}

func (h *Handler) submit(personType PersonType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in SubmitInput
		if err := c.ShouldBindJSON(&in); err != nil {
			middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
			return
		}

		record, err := h.svc.Submit(c.Request.Context(), personType, in)
		if err != nil {
			var dup *DuplicateError
			if errors.As(err, &dup) {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"duplicate":       true,
					"message":         dup.Error(),
					"existing_record": dup.Existing,
				})
				return
			}
			middleware.Abort(c, err)
			return
		}

		c.JSON(http.StatusCreated, record)
	}
}

func (h *Handler) list(personType PersonType) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := h.svc.List(c.Request.Context(), personType, c.Query("date"))
		if err != nil {
			middleware.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}

func (h *Handler) status(personType PersonType) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := h.svc.Status(c.Request.Context(), personType, c.Query("date"))
		if err != nil {
			middleware.Abort(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"statuses": statuses})
	}
}
