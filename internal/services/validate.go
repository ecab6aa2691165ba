package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"daycare/internal/core"
)

const dateMessage = "must be a date in YYYY-MM-DD format"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "date", func(fl validator.FieldLevel) bool {
		return core.ValidDate(fl.Field().String())
	})
	mustRegister(v, "attendance_status", func(fl validator.FieldLevel) bool {
		return core.ValidAttendanceStatus(fl.Field().String())
	})
	mustRegister(v, "child_status", func(fl validator.FieldLevel) bool {
		return core.ValidChildStatus(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// validateInput checks in and returns a core validation error listing every
// offending field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return core.Validation("invalid input", nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = formatFieldError(fe)
	}
	return core.Validation("invalid input", fields)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be a positive id"
	case "date":
		return dateMessage
	case "attendance_status":
		return "must be one of: " + strings.Join(core.AttendanceStatuses, ", ")
	case "child_status":
		return "must be one of: " + core.ChildActive + ", " + core.ChildInactive
	default:
		return "invalid value"
	}
}
