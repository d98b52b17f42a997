package props

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dberrors "github.com/systmms/dbmux/internal/errors"
)

// propertiesSchema constrains property files to a flat mapping of non-empty
// string values. Nested structures and bare numbers are configuration
// mistakes we want to catch before catalog parsing produces a confusing
// downstream error.
const propertiesSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "string",
		"minLength": 1
	}
}`

// FromFile reads a YAML property file and validates it against the flat
// string-map schema.
func FromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dberrors.ConfigError{
				Field:      "properties_file",
				Value:      path,
				Message:    "properties file not found",
				Suggestion: "Check the path, or pass properties through the environment instead",
			}
		}
		return nil, dberrors.UserError{
			Message:    "Failed to read properties file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, dberrors.ConfigError{
			Field:      "properties_file",
			Value:      path,
			Message:    "invalid YAML syntax in properties file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	// An empty file is a valid, empty property set.
	if doc == nil {
		return map[string]string{}, nil
	}

	if err := validateProperties(doc); err != nil {
		return nil, err
	}

	properties := make(map[string]string, len(doc))
	for key, value := range doc {
		properties[key] = value.(string)
	}

	return properties, nil
}

// validateProperties checks the parsed document against propertiesSchema.
func validateProperties(doc map[string]interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal properties for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(propertiesSchema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return dberrors.ConfigError{
			Field:      "properties_file",
			Message:    "properties must be a flat map of non-empty strings:\n  - " + strings.Join(errorMessages, "\n  - "),
			Suggestion: "Quote values that look like numbers, and remove nested sections",
		}
	}

	return nil
}
