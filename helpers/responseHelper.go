package helpers

import (
	"github.com/gin-gonic/gin"

	"go-pizzeria-management/apperrors"
)

// RespondError aborts the request with the failure envelope for err. The
// error itself is attached to the context for the request logger.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{
		"success": false,
		"message": apperrors.PublicMessage(err),
	})
}

// Respond writes a success envelope merged with body.
func Respond(c *gin.Context, status int, body gin.H) {
	out := gin.H{"success": true}
	for k, v := range body {
		out[k] = v
	}
	c.JSON(status, out)
}
