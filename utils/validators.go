package utils

import (
	"tonotes/search"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("searchdate", ValidateSearchDateRule)
}

// InitValidator registers the custom rules on gin's binding validator.
func InitValidator() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return RegisterCustomValidators(v)
	}
	return nil
}

// ValidateSearchDateRule accepts an empty value, YYYY-MM-DD or RFC 3339.
func ValidateSearchDateRule(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := search.ParseDate(value)
	return err == nil
}
