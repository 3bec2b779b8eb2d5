package clinic

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
	r.GET("/clinic-settings", h.get)
	r.PUT("/clinic-settings", h.update)
	r.POST("/upload-logo", h.uploadLogo)
}

func (h *Handler) get(c *gin.Context) {
	settings, err := h.svc.Get(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	settings, err := h.svc.Update(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) uploadLogo(c *gin.Context) {
	file, err := c.FormFile("logo")
	if err != nil {
		middleware.Abort(c, errutil.ValidationFailed("logo file is required"))
		return
	}

	body, err := file.Open()
	if err != nil {
		middleware.Abort(c, errutil.Internal("failed to read upload", errutil.WithErr(err)))
		return
	}
	defer body.Close()

	settings, err := h.svc.UploadLogo(c.Request.Context(), LogoInput{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        body,
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
