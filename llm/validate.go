package llm

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance used by chain and presets.
var validate *validator.Validate

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("identifier", validateIdentifier); err != nil {
		panic(fmt.Sprintf("failed to register identifier validator: %v", err))
	}
}

// validateIdentifier accepts names usable as {placeholders}.
func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}

// Validate checks s against its `validate` struct tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// RegisterCustomValidation registers an extra validation tag.
func RegisterCustomValidation(tag string, fn validator.Func) error {
	return validate.RegisterValidation(tag, fn)
}
