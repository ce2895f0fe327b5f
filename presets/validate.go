package presets

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teilomillet/gochain/llm"
)

func init() {
	for tag, allowed := range map[string]*[]string{
		"supported_language": &supportedLanguages,
		"experience_level":   &experienceLevels,
	} {
		if err := llm.RegisterCustomValidation(tag, oneOfList(allowed)); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

// oneOfList accepts values present in *allowed at validation time.
func oneOfList(allowed *[]string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return slices.Contains(*allowed, fl.Field().String())
	}
}

// validateRequest runs the struct tags and maps the first failing field to
// its message. The error is an InvalidInput LLMError.
func validateRequest(req any, messages map[string]string) error {
	err := llm.Validate(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := messages[verrs[0].StructField()]; ok {
			return llm.NewLLMError(llm.ErrorTypeInvalidInput, msg, nil)
		}
	}
	return llm.NewLLMError(llm.ErrorTypeInvalidInput, "invalid request", err)
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}
