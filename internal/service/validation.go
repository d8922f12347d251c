package service

import (
	"errors"
	"reflect"
	"strings"

	apperrors "social_chat/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = newValidator()

// Имена полей в ошибках совпадают с json-тегами запроса
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := lo.Uniq(lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return fe.Field()
	}))
	return apperrors.NewFieldError(apperrors.ErrValidation,
		"missing or invalid fields: "+strings.Join(fields, ", "), fields...)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return lo.ToPtr(strings.TrimSpace(*s))
}

// Пустой телефон хранится как NULL, иначе уникальность сработает на пустых строках
func normalizePhone(s *string) *string {
	s = trimPtr(s)
	if s == nil || *s == "" {
		return nil
	}
	return s
}
