// Package testcases loads the labeled inputs a prompt is evaluated against.
package testcases

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrNoCases is returned when a test-case file parses but holds no cases.
var ErrNoCases = errors.New("test-case file contains no cases")

const schema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["input"],
    "properties": {
      "id":       {"type": "string"},
      "input":    {"type": "string"},
      "expected": {"type": ["string", "null"]},
      "category": {"type": "string"},
      "metadata": {
        "type": "object",
        "properties": {
          "difficulty":        {"type": "string"},
          "expected_elements": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

// TestCase is one labeled input. Expected is nil when the case has no reference answer.
type TestCase struct {
	ID       string         `json:"id"`
	Input    string         `json:"input"`
	Expected *string        `json:"expected,omitempty"`
	Category string         `json:"category,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HasExpected reports whether the case carries a non-empty reference answer.
func (c TestCase) HasExpected() bool {
	return c.Expected != nil && *c.Expected != ""
}

// ExpectedText returns the reference answer or "" when absent.
func (c TestCase) ExpectedText() string {
	if c.Expected == nil {
		return ""
	}
	return *c.Expected
}

// Difficulty returns metadata.difficulty or "unknown".
func (c TestCase) Difficulty() string {
	if v, ok := c.Metadata["difficulty"].(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// ExpectedElements returns metadata.expected_elements as strings.
func (c TestCase) ExpectedElements() []string {
	raw, ok := c.Metadata["expected_elements"].([]any)
	if !ok {
		if typed, ok := c.Metadata["expected_elements"].([]string); ok {
			return typed
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Load reads a JSON or YAML test-case file, validates its shape and assigns
// default ids of the form case_<index> to cases without one.
func Load(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test cases %s: %w", path, err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)))
}

// Parse decodes test cases from data. ext selects the format (".yaml"/".yml" for
// YAML, anything else for JSON).
func Parse(data []byte, ext string) ([]TestCase, error) {
	if ext == ".yaml" || ext == ".yml" {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse test cases yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert test cases yaml: %w", err)
		}
		data = converted
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("parse test cases: %w", err)
	}
	if !result.Valid() {
		var details []string
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, fmt.Errorf("test cases failed validation: %s", strings.Join(details, "; "))
	}

	var cases []TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("decode test cases: %w", err)
	}
	if len(cases) == 0 {
		return nil, ErrNoCases
	}
	for i := range cases {
		if strings.TrimSpace(cases[i].ID) == "" {
			cases[i].ID = fmt.Sprintf("case_%d", i)
		}
		if cases[i].Metadata == nil {
			cases[i].Metadata = map[string]any{}
		}
	}
	return cases, nil
}

// LoadPrompt reads a prompt file and trims surrounding whitespace.
func LoadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
