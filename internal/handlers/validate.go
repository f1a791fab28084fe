package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"shopper/internal/models"
)

// validate checks request structs with go-playground/validator tags.
var validate = newValidator()

// fieldError describes one rejected request field.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

func newValidator() func(any) []fieldError {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Metadata values must be strings, numbers, booleans or null.
	v.RegisterValidation("scalars", func(fl validator.FieldLevel) bool {
		m, ok := fl.Field().Interface().(models.Metadata)
		return !ok || m.ScalarsOnly()
	})

	return func(s any) []fieldError {
		err := v.Struct(s)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []fieldError{{Message: err.Error()}}
		}
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError{Field: fe.Field(), Message: message(fe)})
		}
		return out
	}
}

// message renders a validation failure for API clients.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "scalars":
		return "values must be strings, numbers, booleans or null"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
