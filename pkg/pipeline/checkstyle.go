package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/lintforge/lintforge/pkg/catalog"
	"github.com/lintforge/lintforge/pkg/diagnostic"
)

// CheckstyleXMLParserStrategyID is the strategy id a catalog Tool binds its
// `actions[].parser` to when the tool's own native output format is
// checkstyle-style XML (`<checkstyle><file name="..."><error .../></file>
// </checkstyle>`) rather than a line-oriented format needing a regex
// parser. A number of linters across ecosystems (ESLint, Stylelint,
// Checkstyle itself, PHP_CodeSniffer) support this as an output mode, so a
// single generic walker covers them all without a per-tool command builder.
const CheckstyleXMLParserStrategyID = "checkstyle-xml"

// CheckstyleXMLParser implements catalog.Parser by walking a checkstyle XML
// report with an element tree rather than a SAX/streaming decoder, since
// report sizes here are page-scoped (one run's worth of diagnostics, not a
// multi-gigabyte document) and etree's FindElements path queries are the
// simplest correct way to pull `file`/`error` pairs regardless of which
// attributes a given tool's emitter omits.
type CheckstyleXMLParser struct{}

// Parse reads actx.Stdout as a checkstyle XML document and emits one
// RawDiagnostic per <error> element, attaching its parent <file>'s name.
func (CheckstyleXMLParser) Parse(ctx context.Context, actx catalog.ActionContext) ([]diagnostic.RawDiagnostic, error) {
	if len(actx.Stdout) == 0 {
		return nil, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(actx.Stdout); err != nil {
		return nil, fmt.Errorf("checkstyle-xml: parse report: %w", err)
	}

	var out []diagnostic.RawDiagnostic
	for _, fileEl := range doc.FindElements("//checkstyle/file") {
		name := fileEl.SelectAttrValue("name", "")
		for _, errEl := range fileEl.FindElements("error") {
			out = append(out, RawDiagnosticFromCheckstyleError(actx.ToolName, name, errEl))
		}
	}
	return out, nil
}

// RawDiagnosticFromCheckstyleError converts a single <error> element into a
// RawDiagnostic, defaulting severity to "error" the way checkstyle itself
// does when a <error> omits the attribute.
func RawDiagnosticFromCheckstyleError(tool, file string, el *etree.Element) diagnostic.RawDiagnostic {
	severity := el.SelectAttrValue("severity", "error")
	return diagnostic.RawDiagnostic{
		File:     file,
		Line:     atoiOr(el.SelectAttrValue("line", "0")),
		Column:   atoiOr(el.SelectAttrValue("column", "0")),
		Severity: severity,
		Message:  el.SelectAttrValue("message", ""),
		Tool:     tool,
		Code:     el.SelectAttrValue("source", ""),
	}
}

func atoiOr(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
