package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

// enumTags lists the accepted values for each enum-style tag
var enumTags = map[string][]string{
	"role":            {"LOSER", "FINDER", "OFFICE", "SECURITY", "ADMIN", "COURIER"},
	"self_role":       {"LOSER", "FINDER", "COURIER"},
	"affiliation":     {"STUDENT", "STAFF", "EXTERNAL"},
	"category":        {"ELECTRONICS", "WALLET", "ID_CARD", "BAG", "CLOTHING", "BOOK", "KEY", "ACCESSORY", "UMBRELLA", "OTHER"},
	"storage_type":    {"SELF", "OFFICE", "SECURITY", "LOCKER"},
	"found_status":    {"REGISTERED", "STORED", "DISCARDED"},
	"handover_method": {"MEET", "OFFICE", "COURIER"},
	"report_target":   {"LOST", "FOUND", "MESSAGE"},
	"report_action":   {"BLIND", "IGNORE"},
}

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
	for tag, values := range enumTags {
		allowed := values
		validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			v := fl.Field().String()
			for _, a := range allowed {
				if v == a {
					return true
				}
			}
			return false
		})
	}

	// Usernames: letters, digits, dot, dash, underscore
	validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return false
		}
		for _, r := range s {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '.' || r == '-' || r == '_') {
				return false
			}
		}
		return true
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "username":
			errors[field] = "Only letters, digits, '.', '-' and '_' are allowed"
		default:
			if values, ok := enumTags[err.Tag()]; ok {
				errors[field] = "Must be one of: " + strings.Join(values, ", ")
			} else {
				errors[field] = "Invalid value"
			}
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
