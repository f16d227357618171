package protocol

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// JSONSchema represents the subset of JSON Schema used to describe tool inputs
type JSONSchema struct {
	Type                 string                 `json:"type,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	AdditionalProperties interface{}            `json:"additionalProperties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Format               string                 `json:"format,omitempty"`
	Enum                 []interface{}          `json:"enum,omitempty"`
	Default              interface{}            `json:"default,omitempty"`

	// Numeric validation
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// String validation
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Array validation
	MinItems *int `json:"minItems,omitempty"`
	MaxItems *int `json:"maxItems,omitempty"`
}

// NewJSONSchemaFromRaw creates a new JSONSchema from raw JSON data
func NewJSONSchemaFromRaw(data json.RawMessage) (*JSONSchema, error) {
	var schema JSONSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// GenerateSchema derives the input schema for a tool from its argument struct.
// Definitions are inlined so the schema travels self-contained over the wire.
func GenerateSchema[T any]() *JSONSchema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	reflected := reflector.Reflect(v)

	data, err := json.Marshal(reflected)
	if err != nil {
		return &JSONSchema{Type: "object"}
	}
	schema, err := NewJSONSchemaFromRaw(data)
	if err != nil {
		return &JSONSchema{Type: "object"}
	}
	return schema
}

// ObjectSchema creates a new JSONSchema for an object type with the given properties
func ObjectSchema(properties map[string]*JSONSchema, required []string) *JSONSchema {
	return &JSONSchema{
		Type:       "object",
		Required:   required,
		Properties: properties,
	}
}

// StringSchema creates a new JSONSchema for a string type
func StringSchema(description string) *JSONSchema {
	return &JSONSchema{
		Type:        "string",
		Description: description,
	}
}

// NumberSchema creates a new JSONSchema for a number type
func NumberSchema(description string) *JSONSchema {
	return &JSONSchema{
		Type:        "number",
		Description: description,
	}
}

// ArraySchema creates a new JSONSchema for an array type with the given item schema
func ArraySchema(items *JSONSchema) *JSONSchema {
	return &JSONSchema{
		Type:  "array",
		Items: items,
	}
}
