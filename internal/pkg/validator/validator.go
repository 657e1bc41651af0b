package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

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
	// Payment method validation
	validate.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		method := fl.Field().String()
		validMethods := []string{"razorpay", "upi", "wallet"}
		for _, m := range validMethods {
			if method == m {
				return true
			}
		}
		return false
	})

	// Item condition validation
	validate.RegisterValidation("condition", func(fl validator.FieldLevel) bool {
		condition := fl.Field().String()
		validConditions := []string{"new", "like_new", "good", "fair", ""}
		for _, c := range validConditions {
			if condition == c {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns per-field error messages
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	details := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		details["_"] = err.Error()
		return details
	}

	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = messageForTag(fieldErr)
	}
	return details
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short or too small (min: " + fe.Param() + ")"
	case "max":
		return "Value is too long or too large (max: " + fe.Param() + ")"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "gte":
		return "Value must be at least " + fe.Param()
	case "uuid":
		return "Must be a valid UUID"
	case "payment_method":
		return "Unsupported payment method"
	case "condition":
		return "Unsupported item condition"
	default:
		return "Invalid value"
	}
}
