package promo

import (
	"net/http"

	"clinic-adminplane/pkg/errutil"
	"clinic-adminplane/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc      *Service
	enqueuer *Enqueuer
}

func NewHandler(svc *Service, enqueuer *Enqueuer) *Handler {
	return &Handler{svc: svc, enqueuer: enqueuer}
}

func (h *Handler) Register(r gin.IRouter) {
	images := r.Group("/promo-images")
	{
		images.POST("/upload", h.upload)
		images.GET("", h.listImages)
		images.DELETE("/:id", h.deleteImage)
	}

	history := r.Group("/promo-history")
	{
		history.GET("", h.listHistory)
		history.POST("/send", h.send)
		history.POST("/enqueue", h.enqueue)
	}
}

func (h *Handler) upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		middleware.Abort(c, errutil.ValidationFailed("image file is required"))
		return
	}

	body, err := file.Open()
	if err != nil {
		middleware.Abort(c, errutil.Internal("failed to read upload", errutil.WithErr(err)))
		return
	}
	defer body.Close()

	img, err := h.svc.UploadImage(c.Request.Context(), UploadInput{
		Title:       c.PostForm("title"),
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        body,
		UploadedBy:  c.PostForm("uploaded_by"),
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, img)
}

func (h *Handler) listImages(c *gin.Context) {
	images, err := h.svc.ListImages(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h *Handler) deleteImage(c *gin.Context) {
	if err := h.svc.DeleteImage(c.Request.Context(), c.Param("id")); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) listHistory(c *gin.Context) {
	entries, err := h.svc.ListHistory(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (h *Handler) send(c *gin.Context) {
	var in SendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	result, err := h.svc.SendCampaign(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) enqueue(c *gin.Context) {
	var in SendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Abort(c, errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	taskID, err := h.enqueuer.Enqueue(c.Request.Context(), in)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}
