// Package formatter renders one-line inbox summaries from ${variable}
// templates and named presets.
package formatter

import (
	"fmt"
	"regexp"
	"strings"
)

// TemplateEngine provides template parsing and variable substitution.
type TemplateEngine interface {
	// Parse returns the variables found in the template.
	Parse(template string) ([]string, error)

	// Substitute replaces variables in the template with values from the context.
	Substitute(template string, ctx VariableContext) (string, error)

	// Validate checks delimiters and variable names.
	Validate(template string) error
}

type templateEngine struct {
	variablePattern *regexp.Regexp
	resolver        VariableResolver
}

// NewTemplateEngine creates a new template engine instance.
func NewTemplateEngine() TemplateEngine {
	return &templateEngine{
		variablePattern: regexp.MustCompile(`\$\{([a-z0-9-]+)\}`),
		resolver:        NewVariableResolver(),
	}
}

// Parse identifies all variables in a template using ${variable-name} syntax.
// Names are returned once, in order of first appearance.
func (te *templateEngine) Parse(template string) ([]string, error) {
	matches := te.variablePattern.FindAllStringSubmatch(template, -1)
	seen := make(map[string]bool)
	variables := []string{}
	for _, match := range matches {
		if !seen[match[1]] {
			variables = append(variables, match[1])
			seen[match[1]] = true
		}
	}
	return variables, nil
}

// Substitute replaces every variable with its resolved value. Unknown
// variables are an error.
func (te *templateEngine) Substitute(template string, ctx VariableContext) (string, error) {
	var resolveErr error
	result := te.variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		name := te.variablePattern.FindStringSubmatch(match)[1]
		value, err := te.resolver.Resolve(name, ctx)
		if err != nil && resolveErr == nil {
			resolveErr = err
		}
		return value
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return result, nil
}

// Validate checks that delimiters balance and every variable is known.
func (te *templateEngine) Validate(template string) error {
	openCount := strings.Count(template, "${")
	if openCount != len(te.variablePattern.FindAllString(template, -1)) {
		return fmt.Errorf("malformed variable in template: %q", template)
	}
	names, _ := te.Parse(template)
	for _, name := range names {
		if _, err := te.resolver.Resolve(name, VariableContext{}); err != nil {
			return err
		}
	}
	return nil
}
