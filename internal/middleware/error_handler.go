package middleware

import (
	"social_chat/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorHandler отвечает по последней ошибке, добавленной через c.Error, если ответ еще не записан
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		apiErr := errors.FromError(c.Errors.Last().Err)
		c.JSON(apiErr.Code, apiErr)
	}
}

func abortWithError(c *gin.Context, err error) {
	apiErr := errors.FromError(err)
	c.AbortWithStatusJSON(apiErr.Code, apiErr)
}
