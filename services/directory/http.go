package directory

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
	patients := r.Group("/patients")
	{
		patients.POST("", h.createPatient)
		patients.GET("", h.listPatients)
		patients.GET("/:id", h.getPatient)
		patients.PUT("/:id", h.updatePatient)
		patients.DELETE("/:id", h.deletePatient)
	}

	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.createDoctor)
		doctors.GET("", h.listDoctors)
		doctors.DELETE("/:id", h.deleteDoctor)
	}

	employees := r.Group("/employees")
	{
		employees.POST("", h.createEmployee)
		employees.GET("", h.listEmployees)
		employees.DELETE("/:id", h.deleteEmployee)
	}
}

func (h *Handler) createPatient(c *gin.Context) {
	var in PatientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) listPatients(c *gin.Context) {
	patients, err := h.svc.ListPatients(c.Request.Context(), c.Query("search"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

func (h *Handler) getPatient(c *gin.Context) {
	p, err := h.svc.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updatePatient(c *gin.Context) {
	var in PatientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deletePatient(c *gin.Context) {
	if err := h.svc.DeletePatient(c.Request.Context(), c.Param("id")); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) createDoctor(c *gin.Context) {
	var in DoctorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	d, err := h.svc.CreateDoctor(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) listDoctors(c *gin.Context) {
	doctors, err := h.svc.ListDoctors(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

func (h *Handler) deleteDoctor(c *gin.Context) {
	if err := h.svc.DeleteDoctor(c.Request.Context(), c.Param("id")); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) createEmployee(c *gin.Context) {
	var in EmployeeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	e, err := h.svc.CreateEmployee(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) listEmployees(c *gin.Context) {
	employees, err := h.svc.ListEmployees(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

func (h *Handler) deleteEmployee(c *gin.Context) {
	if err := h.svc.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
