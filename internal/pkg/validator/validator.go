package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Roles accepted by the "role" tag.
var Roles = []string{"member", "cashier", "manager"}

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		for _, r := range Roles {
			if role == r {
				return true
			}
		}
		return false
	})

	// utorid: 7-8 lowercase letters or digits
	validate.RegisterValidation("utorid", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		if len(v) < 7 || len(v) > 8 {
			return false
		}
		for _, c := range v {
			if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') {
				return false
			}
		}
		return true
	})

	validate.RegisterValidation("nonzero", func(fl validator.FieldLevel) bool {
		return !fl.Field().IsZero()
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short (min: " + fe.Param() + ")"
	case "max":
		return "Value is too long (max: " + fe.Param() + ")"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "gte":
		return "Value must be at least " + fe.Param()
	case "lte":
		return "Value must be at most " + fe.Param()
	case "gtfield":
		return "Value must be after " + fe.Param()
	case "role":
		return "Invalid role. Must be: " + strings.Join(Roles, ", ")
	case "utorid":
		return "Invalid utorid. Must be 7-8 lowercase letters or digits"
	case "nonzero":
		return "Value must not be zero"
	default:
		return "Invalid value"
	}
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
