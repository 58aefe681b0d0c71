package modelfleet

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/modelfleet/modelfleet/chat"
)

// ToolBuilder constructs tool schemas with a fluent API.
type ToolBuilder struct {
	schema chat.ToolSchema
}

// NewTool creates a new tool builder.
func NewTool(name string) *ToolBuilder {
	return &ToolBuilder{
		schema: chat.ToolSchema{
			Name:       name,
			Parameters: map[string]any{},
		},
	}
}

// WithDescription sets the tool description.
func (tb *ToolBuilder) WithDescription(desc string) *ToolBuilder {
	tb.schema.Description = desc
	return tb
}

// WithParameter adds a parameter to the tool.
func (tb *ToolBuilder) WithParameter(name string, schema *ParameterSchema) *ToolBuilder {
	if tb.schema.Parameters["properties"] == nil {
		tb.schema.Parameters = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
			"required":   []string{},
		}
	}

	props := tb.schema.Parameters["properties"].(map[string]any)
	props[name] = schema.ToMap()

	if schema.required {
		required := tb.schema.Parameters["required"].([]string)
		tb.schema.Parameters["required"] = append(required, name)
	}
	return tb
}

// WithRawParameters sets the full parameters schema for complex tools.
func (tb *ToolBuilder) WithRawParameters(params map[string]any) *ToolBuilder {
	tb.schema.Parameters = params
	return tb
}

// Build validates the name and returns the schema.
func (tb *ToolBuilder) Build() (chat.ToolSchema, error) {
	if err := chat.AssertValidName(tb.schema.Name); err != nil {
		return chat.ToolSchema{}, err
	}
	if len(tb.schema.Parameters) == 0 {
		tb.schema.Parameters = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}
	return tb.schema, nil
}

// ToolFromStruct derives a tool schema from a Go struct type. Field names,
// descriptions, and required markers come from json and jsonschema tags.
func ToolFromStruct[T any](name, description string) (chat.ToolSchema, error) {
	if err := chat.AssertValidName(name); err != nil {
		return chat.ToolSchema{}, err
	}

	var zero T
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := r.Reflect(&zero)

	raw, err := json.Marshal(schema)
	if err != nil {
		return chat.ToolSchema{}, fmt.Errorf("marshal schema for %s: %w", name, err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return chat.ToolSchema{}, fmt.Errorf("decode schema for %s: %w", name, err)
	}
	delete(params, "$schema")
	delete(params, "$id")

	return chat.ToolSchema{
		Name:        name,
		Description: description,
		Parameters:  params,
	}, nil
}

// ParameterSchema defines a single tool parameter.
type ParameterSchema struct {
	paramType   string
	description string
	required    bool
	enum        []string
	items       map[string]any
	properties  map[string]*ParameterSchema
}

const (
	paramTypeString  = "string"
	paramTypeNumber  = "number"
	paramTypeInteger = "integer"
	paramTypeBoolean = "boolean"
	paramTypeArray   = "array"
	paramTypeObject  = "object"
)

// String creates a string parameter schema.
func String() *ParameterSchema {
	return &ParameterSchema{paramType: paramTypeString}
}

// Number creates a number parameter schema.
func Number() *ParameterSchema {
	return &ParameterSchema{paramType: paramTypeNumber}
}

// Integer creates an integer parameter schema.
func Integer() *ParameterSchema {
	return &ParameterSchema{paramType: paramTypeInteger}
}

// Boolean creates a boolean parameter schema.
func Boolean() *ParameterSchema {
	return &ParameterSchema{paramType: paramTypeBoolean}
}

// Array creates an array parameter schema.
func Array(itemType string) *ParameterSchema {
	return &ParameterSchema{
		paramType: paramTypeArray,
		items:     map[string]any{"type": itemType},
	}
}

// Object creates an object parameter schema.
func Object() *ParameterSchema {
	return &ParameterSchema{
		paramType:  paramTypeObject,
		properties: map[string]*ParameterSchema{},
	}
}

// WithProperty adds a property to an object parameter schema.
func (ps *ParameterSchema) WithProperty(name string, schema *ParameterSchema) *ParameterSchema {
	if ps.properties == nil {
		ps.properties = map[string]*ParameterSchema{}
	}
	ps.paramType = paramTypeObject
	ps.properties[name] = schema
	return ps
}

// WithDescription sets the parameter description.
func (ps *ParameterSchema) WithDescription(desc string) *ParameterSchema {
	ps.description = desc
	return ps
}

// Required marks the parameter as required.
func (ps *ParameterSchema) Required() *ParameterSchema {
	ps.required = true
	return ps
}

// WithEnum sets allowed values for the parameter.
func (ps *ParameterSchema) WithEnum(values ...string) *ParameterSchema {
	ps.enum = values
	return ps
}

// ToMap converts the schema to a plain JSON-schema map.
func (ps *ParameterSchema) ToMap() map[string]any {
	m := map[string]any{
		"type": ps.paramType,
	}
	if ps.description != "" {
		m["description"] = ps.description
	}
	if len(ps.enum) > 0 {
		m["enum"] = ps.enum
	}
	if len(ps.items) > 0 {
		m["items"] = ps.items
	}
	if len(ps.properties) > 0 {
		props := make(map[string]any, len(ps.properties))
		required := make([]string, 0, len(ps.properties))
		for name, schema := range ps.properties {
			if schema == nil {
				continue
			}
			props[name] = schema.ToMap()
			if schema.required {
				required = append(required, name)
			}
		}
		m["properties"] = props
		if len(required) > 0 {
			m["required"] = required
		}
	}
	return m
}
