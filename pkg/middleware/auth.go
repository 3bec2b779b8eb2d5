package middleware

import (
	"strings"

	"clinic-adminplane/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUserRole = "X-User-Role"
	HeaderUserID   = "X-User-Id"
)

// BearerAuth rejects requests whose Authorization header does not carry the
// configured static API token. An empty configured token disables the check,
// which is the development default.
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		value, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || value != token {
			err := errutil.FromError(errutil.Unauthorized("missing or invalid bearer token"))
			c.AbortWithStatusJSON(err.Code.HTTPStatus(), err.JSON())
			return
		}

		c.Next()
	}
}

// CallerRole returns the role header upstream auth attaches to the request.
func CallerRole(c *gin.Context) string {
	return c.GetHeader(HeaderUserRole)
}
