package catalogdocs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintforge/lintforge/pkg/catalog"
)

func sampleTool() catalog.Tool {
	return catalog.Tool{
		Name:        "ruff",
		Description: "An extremely fast Python linter.",
		Phase:       catalog.PhaseLint,
		Languages:   []string{"python"},
		Aliases:     []string{"ruff-lint"},
		Actions: []catalog.ToolAction{
			{Name: "check"},
			{Name: "fix", IsFix: true},
		},
		Documentation: &catalog.DocumentationBundle{
			Summary:  "Ruff combines many linters into one fast binary.",
			URL:      "https://docs.astral.sh/ruff/",
			Examples: []string{"ruff check ."},
			Resources: map[string]string{
				"Changelog": "https://github.com/astral-sh/ruff/releases",
			},
		},
	}
}

func TestRenderIncludesCoreFields(t *testing.T) {
	out, err := Render(sampleTool())
	require.NoError(t, err)
	assert.Contains(t, out, "# ruff")
	assert.Contains(t, out, "An extremely fast Python linter.")
	assert.Contains(t, out, "**Phase**: lint")
	assert.Contains(t, out, "**Languages**: python")
	assert.Contains(t, out, "`check`")
	assert.Contains(t, out, "`fix` (fix)")
	assert.Contains(t, out, "https://docs.astral.sh/ruff/")
	assert.Contains(t, out, "ruff check .")
	assert.Contains(t, out, "Changelog")
}

func TestRenderWithoutDocumentationBundleOmitsOptionalSections(t *testing.T) {
	tool := sampleTool()
	tool.Documentation = nil

	out, err := Render(tool)
	require.NoError(t, err)
	assert.Contains(t, out, "# ruff")
	assert.False(t, strings.Contains(out, "## Examples"))
	assert.False(t, strings.Contains(out, "## Resources"))
}

func TestRenderTemplateAllowsCustomTemplate(t *testing.T) {
	out, err := RenderTemplate("Tool: {{name}} ({{phase}})", sampleTool())
	require.NoError(t, err)
	assert.Equal(t, "Tool: ruff (lint)", out)
}
