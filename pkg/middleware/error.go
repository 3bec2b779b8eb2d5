package middleware

import (
	"clinic-adminplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error renders the last error a handler attached to the context as the
// shared JSON error envelope.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil || c.Writer.Written() {
			return
		}

		base := errutil.FromError(err.Err)
		c.JSON(base.Code.HTTPStatus(), base.JSON())
	}
}

// Abort attaches err to the context and stops the handler chain. The Error
// middleware turns it into a response.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
