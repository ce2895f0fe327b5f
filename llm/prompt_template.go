package llm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches {identifier}. Anything else in braces is text.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// PromptTemplate is a text template with {name} placeholders.
type PromptTemplate struct {
	Name        string
	Description string
	Template    string
	// Inputs restricts the variables the template may use. Empty means
	// whatever placeholders the template contains.
	Inputs []string
}

// PromptTemplateOption is a function type that modifies a PromptTemplate
type PromptTemplateOption func(*PromptTemplate)

// NewPromptTemplate creates a new PromptTemplate with the given name, description, and template
func NewPromptTemplate(name, description, template string, opts ...PromptTemplateOption) *PromptTemplate {
	pt := &PromptTemplate{
		Name:        name,
		Description: description,
		Template:    template,
	}
	for _, opt := range opts {
		opt(pt)
	}
	return pt
}

// WithInputs declares the variables the template is rendered with.
func WithInputs(names ...string) PromptTemplateOption {
	return func(pt *PromptTemplate) {
		pt.Inputs = append(pt.Inputs, names...)
	}
}

// Placeholders returns the template's placeholder names in order of first
// appearance.
func (pt *PromptTemplate) Placeholders() []string {
	return Placeholders(pt.Template)
}

// InputVariables returns the declared inputs, or the placeholders when none
// were declared.
func (pt *PromptTemplate) InputVariables() []string {
	if len(pt.Inputs) > 0 {
		return append([]string(nil), pt.Inputs...)
	}
	return pt.Placeholders()
}

// Execute substitutes data into the template in a single pass. Substituted
// values are not scanned for placeholders again.
func (pt *PromptTemplate) Execute(data map[string]any) (string, error) {
	var missing []string
	for _, name := range pt.Placeholders() {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", NewLLMError(ErrorTypeMissingVariable,
			fmt.Sprintf("template %q: missing variable(s) %s", pt.Name, quoteAll(missing)), nil)
	}

	return placeholderPattern.ReplaceAllStringFunc(pt.Template, func(match string) string {
		return FormatValue(data[match[1:len(match)-1]])
	}), nil
}

// Placeholders returns the distinct {identifier} names in template.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// FormatValue renders a binding. Integral floats keep a trailing ".0" so
// 1.0 hour reads as "1.0" rather than "1".
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatFloat(val, 64)
	case float32:
		return formatFloat(float64(val), 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.ContainsAny(s, ".nN") {
		s += ".0"
	}
	return s
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return strings.Join(quoted, ", ")
}
