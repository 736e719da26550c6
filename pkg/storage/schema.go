package storage

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// stateSchemaJSON describes workflow-state.json. schemaVersion is optional so
// records written before it existed still load.
const stateSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["currentPhase", "planApproved", "implementationStarted", "validationComplete", "metadata"],
  "properties": {
    "schemaVersion": { "type": "integer", "minimum": 1 },
    "currentPhase": { "type": "string", "enum": ["idle", "research", "plan", "implement", "validate"] },
    "taskId": { "type": "string" },
    "researchPath": { "type": "string" },
    "planPath": { "type": "string" },
    "planApproved": { "type": "boolean" },
    "implementationStarted": { "type": "boolean" },
    "validationComplete": { "type": "boolean" },
    "metadata": {
      "type": "object",
      "required": ["createdAt", "updatedAt"],
      "properties": {
        "createdAt": { "type": "string" },
        "updatedAt": { "type": "string" },
        "taskDescription": { "type": "string" }
      }
    }
  }
}`

var stateSchemaLoader = gojsonschema.NewStringLoader(stateSchemaJSON)

// SchemaError lists the violations found in a state document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "state file does not match schema: " + strings.Join(e.Violations, "; ")
}

// ValidateStateDocument checks raw record bytes against the state schema.
func ValidateStateDocument(data []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(stateSchemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate state: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &SchemaError{Violations: violations}
}
