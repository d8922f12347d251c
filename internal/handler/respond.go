package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"social_chat/internal/middleware"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

func init() {
	// в ошибках binding поля называются как в json
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func respondError(c *gin.Context, log logger.Logger, err error) {
	apiErr := apperrors.FromError(err)
	if apiErr.Code >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err, "path", c.FullPath())
	} else {
		log.Debug("Request rejected", "error", err, "status", apiErr.Code, "path", c.FullPath())
	}
	c.JSON(apiErr.Code, apiErr)
}

// bindJSON разбирает тело запроса, ошибки binding превращаются в ErrValidation с полями
func bindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := lo.Uniq(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
			return fe.Field()
		}))
		return apperrors.NewFieldError(apperrors.ErrValidation,
			"missing or invalid fields: "+strings.Join(fields, ", "), fields...)
	}
	return apperrors.NewFieldError(apperrors.ErrBadRequest, "invalid request body: "+err.Error())
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewFieldError(apperrors.ErrBadRequest, "invalid "+name, name)
	}
	return id, nil
}

// currentUser отвечает 401, если RequireAuth не установил пользователя
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated", "code": http.StatusUnauthorized})
		return 0, false
	}
	return userID, true
}
