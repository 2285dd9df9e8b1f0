package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateArguments checks tool-call arguments against the tool's
// declared JSON schema. A nil or empty schema accepts everything.
func ValidateArguments(schema json.RawMessage, args map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}

	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(details, "; "))
}
