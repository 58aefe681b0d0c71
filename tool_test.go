package modelfleet

import (
	"errors"
	"testing"

	"github.com/modelfleet/modelfleet/chat"
)

func TestNewToolBuild(t *testing.T) {
	tool, err := NewTool("get_weather").
		WithDescription("Get weather for a city").
		WithParameter("city", String().Required().WithDescription("City name")).
		WithParameter("unit", String().WithEnum("celsius", "fahrenheit")).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.Name != "get_weather" || tool.Description != "Get weather for a city" {
		t.Errorf("unexpected tool: %+v", tool)
	}

	props := tool.Parameters["properties"].(map[string]any)
	city := props["city"].(map[string]any)
	if city["type"] != "string" || city["description"] != "City name" {
		t.Errorf("unexpected city schema: %+v", city)
	}
	unit := props["unit"].(map[string]any)
	enum := unit["enum"].([]string)
	if len(enum) != 2 || enum[0] != "celsius" {
		t.Errorf("unexpected enum: %v", enum)
	}

	required := tool.Parameters["required"].([]string)
	if len(required) != 1 || required[0] != "city" {
		t.Errorf("only city is required, got %v", required)
	}
}

func TestNewToolInvalidName(t *testing.T) {
	_, err := NewTool("bad name").Build()
	var nameErr *chat.InvalidNameError
	if !errors.As(err, &nameErr) {
		t.Fatalf("expected InvalidNameError, got %v", err)
	}
}

func TestNewToolEmptyParameters(t *testing.T) {
	tool, err := NewTool("noop").Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.Parameters["type"] != "object" {
		t.Errorf("expected object schema, got %+v", tool.Parameters)
	}
}

func TestParameterSchemaNested(t *testing.T) {
	schema := Object().
		WithProperty("min", Integer().Required()).
		WithProperty("max", Integer()).
		ToMap()

	if schema["type"] != "object" {
		t.Errorf("expected object type, got %v", schema["type"])
	}
	props := schema["properties"].(map[string]any)
	if props["min"].(map[string]any)["type"] != "integer" {
		t.Errorf("unexpected min schema: %+v", props["min"])
	}
	required := schema["required"].([]string)
	if len(required) != 1 || required[0] != "min" {
		t.Errorf("expected only min required, got %v", required)
	}
}

func TestArraySchema(t *testing.T) {
	schema := Array("string").WithDescription("tags").ToMap()
	if schema["type"] != "array" {
		t.Errorf("expected array type, got %v", schema["type"])
	}
	items := schema["items"].(map[string]any)
	if items["type"] != "string" {
		t.Errorf("unexpected items: %+v", items)
	}
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"required,description=What to search for"`
	Limit int    `json:"limit,omitempty"`
}

func TestToolFromStruct(t *testing.T) {
	tool, err := ToolFromStruct[searchArgs]("search", "Search the index")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.Name != "search" || tool.Description != "Search the index" {
		t.Errorf("unexpected tool: %+v", tool)
	}
	if _, ok := tool.Parameters["$schema"]; ok {
		t.Error("$schema must be stripped")
	}
	props, ok := tool.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties, got %+v", tool.Parameters)
	}
	if _, ok := props["query"]; !ok {
		t.Errorf("expected query property, got %+v", props)
	}
	if _, ok := props["limit"]; !ok {
		t.Errorf("expected limit property, got %+v", props)
	}
}

func TestToolFromStructInvalidName(t *testing.T) {
	if _, err := ToolFromStruct[searchArgs]("bad name", ""); err == nil {
		t.Fatal("expected error for invalid name")
	}
}
