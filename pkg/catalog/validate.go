package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// compiledSchemas holds the catalog's two document schemas, compiled once
// from the embedded assets in schemaassets.
type compiledSchemas struct {
	tool     *gojsonschema.Schema
	strategy *gojsonschema.Schema
}

func compileSchemas() (*compiledSchemas, error) {
	toolSchema, err := schemaassetsFS.ReadFile("schemaassets/tool.schema.json")
	if err != nil {
		return nil, fmt.Errorf("catalog: read embedded tool schema: %w", err)
	}
	strategySchema, err := schemaassetsFS.ReadFile("schemaassets/strategy.schema.json")
	if err != nil {
		return nil, fmt.Errorf("catalog: read embedded strategy schema: %w", err)
	}

	toolSch, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(toolSchema))
	if err != nil {
		return nil, fmt.Errorf("catalog: compile tool schema: %w", err)
	}
	strategySch, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(strategySchema))
	if err != nil {
		return nil, fmt.Errorf("catalog: compile strategy schema: %w", err)
	}
	return &compiledSchemas{tool: toolSch, strategy: strategySch}, nil
}

// validateDocument runs data through sch and returns a validation error
// describing every schema violation, or nil if the document is valid.
func validateDocument(sch *gojsonschema.Schema, file string, data any) error {
	docBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("catalog: encode %s for validation: %w", file, err)
	}
	result, err := sch.Validate(gojsonschema.NewBytesLoader(docBytes))
	if err != nil {
		return fmt.Errorf("catalog: validate %s: %w", file, err)
	}
	if result.Valid() {
		return nil
	}
	reasons := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		field := verr.Field()
		if field == "" {
			field = "root"
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", field, verr.Description()))
	}
	return newValidationError(file, reasons)
}
