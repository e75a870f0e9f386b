// Package catalogdocs renders a catalog Tool's documentation bundle (spec
// §3 Tool attribute "documentation bundle") to Markdown, grounded on
// goneat's renderHandlebars/defaultTemplate pattern in
// internal/assess/formatter.go.
package catalogdocs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/lintforge/lintforge/pkg/catalog"
)

// defaultTemplate is the built-in Handlebars template used when the caller
// doesn't supply one. It favors the over-the-wire Markdown a doc site or
// `--list-tools --verbose` view would render.
const defaultTemplate = `# {{name}}

{{description}}

- **Phase**: {{phase}}
{{#if languages}}- **Languages**: {{join languages ", "}}
{{/if}}
{{#if aliases}}- **Aliases**: {{join aliases ", "}}
{{/if}}
{{#if summary}}
{{summary}}
{{/if}}
{{#if url}}
See: {{url}}
{{/if}}

## Actions

{{#each actions}}
- ` + "`{{name}}`" + `{{#if isFix}} (fix){{/if}}
{{/each}}
{{#if examples}}

## Examples

{{#each examples}}
` + "```" + `
{{this}}
` + "```" + `
{{/each}}
{{/if}}
{{#if resources}}

## Resources

{{#each resources}}
- [{{@key}}]({{this}})
{{/each}}
{{/if}}
`

// actionView and templateData are the flattened shapes raymond renders
// against; actions are projected into actionView values carrying only the
// fields the template reads.
type templateData struct {
	Name        string
	Description string
	Phase       string
	Languages   []string
	Aliases     []string
	Summary     string
	URL         string
	Examples    []string
	Resources   map[string]string
	Actions     []actionView
}

type actionView struct {
	Name  string
	IsFix bool
}

var helpersOnce = registerHelpers()

func registerHelpers() bool {
	raymond.RegisterHelper("join", func(items []string, sep string) string {
		return strings.Join(items, sep)
	})
	raymond.RegisterHelper("gt", func(a, b interface{}) bool {
		aVal, _ := strconv.Atoi(fmt.Sprintf("%v", a))
		bVal, _ := strconv.Atoi(fmt.Sprintf("%v", b))
		return aVal > bVal
	})
	return true
}

// Render produces the Markdown documentation for tool using the built-in
// template. A nil Documentation bundle still renders the structural
// sections (phase, actions); only the bundle-sourced sections are omitted.
func Render(tool catalog.Tool) (string, error) {
	return RenderTemplate(defaultTemplate, tool)
}

// RenderTemplate renders tool against an arbitrary Handlebars template,
// letting a catalog author supply a house style without a code change.
func RenderTemplate(tpl string, tool catalog.Tool) (string, error) {
	_ = helpersOnce

	data := templateData{
		Name:        tool.Name,
		Description: tool.Description,
		Phase:       string(tool.Phase),
		Languages:   tool.Languages,
		Aliases:     tool.Aliases,
	}
	for _, a := range tool.Actions {
		data.Actions = append(data.Actions, actionView{Name: a.Name, IsFix: a.IsFix})
	}
	if tool.Documentation != nil {
		data.Summary = tool.Documentation.Summary
		data.URL = tool.Documentation.URL
		data.Examples = tool.Documentation.Examples
		data.Resources = tool.Documentation.Resources
	}

	out, err := raymond.Render(tpl, data)
	if err != nil {
		return "", fmt.Errorf("catalogdocs: render %s: %w", tool.Name, err)
	}
	return out, nil
}
