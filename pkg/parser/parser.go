// Package parser converts YAML/JSON batch suite definitions into AST types.
package parser

import (
	"fmt"
	"strings"

	"github.com/lemonberrylabs/shunting-yard/pkg/ast"
	"github.com/lemonberrylabs/shunting-yard/pkg/types"
	"gopkg.in/yaml.v3"
)

// MaxCases is the maximum number of cases per suite.
const MaxCases = 1000

// MaxSourceSize is the maximum suite source size in bytes (128 KB).
const MaxSourceSize = 128 * 1024

// ParseError represents an error encountered during suite parsing.
type ParseError struct {
	Message  string
	Location string // e.g., "case 'precedence'"
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Parse parses a YAML or JSON suite definition.
//
// A suite is either a mapping:
//
//	name: precedence
//	maxDepth: 100
//	verify: true
//	cases:
//	  - "3 + 4 * 5"
//	  - id: pow
//	    input: "2 ^ 3 ^ 2"
//	    want: "2 3 2 POW POW"
//	    wantValue: 512
//	  - input: "( 1 + 2"
//	    wantError: UnbalancedOpenParen
//
// or a bare sequence of cases.
func Parse(source []byte) (*ast.Suite, error) {
	if len(source) > MaxSourceSize {
		return nil, &ParseError{Message: fmt.Sprintf("suite source size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(source, &raw); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	// The root node is a document node containing the actual content
	if raw.Kind != yaml.DocumentNode || len(raw.Content) == 0 {
		return nil, &ParseError{Message: "empty suite definition"}
	}

	suite := &ast.Suite{}
	root := raw.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		cases, err := parseCases(root)
		if err != nil {
			return nil, err
		}
		suite.Cases = cases
	case yaml.MappingNode:
		if err := parseSuiteBody(suite, root); err != nil {
			return nil, err
		}
	default:
		return nil, &ParseError{Message: "suite definition must be a mapping or sequence"}
	}

	if len(suite.Cases) == 0 {
		return nil, &ParseError{Message: "suite must have at least one case"}
	}
	return suite, nil
}

func parseSuiteBody(suite *ast.Suite, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch key {
		case "name":
			if val.Kind != yaml.ScalarNode {
				return &ParseError{Message: "name must be a string"}
			}
			suite.Name = val.Value
		case "maxDepth":
			var depth int
			if err := val.Decode(&depth); err != nil || depth < 0 {
				return &ParseError{Message: fmt.Sprintf("maxDepth must be a non-negative integer, got %q", val.Value)}
			}
			suite.MaxDepth = depth
		case "verify":
			var verify bool
			if err := val.Decode(&verify); err != nil {
				return &ParseError{Message: fmt.Sprintf("verify must be a boolean, got %q", val.Value)}
			}
			suite.Verify = verify
		case "cases":
			cases, err := parseCases(val)
			if err != nil {
				return err
			}
			suite.Cases = cases
		default:
			return &ParseError{Message: fmt.Sprintf("unknown key '%s' in suite", key)}
		}
	}
	return nil
}

// parseCases parses the case list.
func parseCases(node *yaml.Node) ([]*ast.Case, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{Message: "cases must be a sequence"}
	}
	if len(node.Content) > MaxCases {
		return nil, &ParseError{Message: fmt.Sprintf("suite has %d cases, maximum is %d", len(node.Content), MaxCases)}
	}

	var cases []*ast.Case
	seen := make(map[string]bool)
	for i, item := range node.Content {
		c, err := parseCase(item, i)
		if err != nil {
			return nil, err
		}
		if seen[c.ID] {
			return nil, &ParseError{Message: "duplicate case id", Location: fmt.Sprintf("case '%s'", c.ID)}
		}
		seen[c.ID] = true
		cases = append(cases, c)
	}
	return cases, nil
}

// parseCase parses a single case: a scalar input or a mapping.
func parseCase(node *yaml.Node, index int) (*ast.Case, error) {
	c := &ast.Case{ID: fmt.Sprintf("case-%d", index+1)}

	switch node.Kind {
	case yaml.ScalarNode:
		c.Input = node.Value
	case yaml.MappingNode:
		hasInput := false
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			val := node.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return nil, &ParseError{
					Message:  fmt.Sprintf("'%s' must be a scalar", key),
					Location: fmt.Sprintf("case %d", index+1),
				}
			}

			switch key {
			case "id":
				c.ID = val.Value
			case "input":
				c.Input = val.Value
				hasInput = true
			case "want":
				c.Want = val.Value
				c.HasWant = true
			case "wantValue":
				var v int64
				if err := val.Decode(&v); err != nil {
					return nil, &ParseError{
						Message:  fmt.Sprintf("wantValue must be an integer, got %q", val.Value),
						Location: fmt.Sprintf("case %d", index+1),
					}
				}
				c.WantValue = &v
			case "wantError":
				if !types.IsKnownKind(val.Value) {
					return nil, &ParseError{
						Message:  fmt.Sprintf("unknown error kind '%s'", val.Value),
						Location: fmt.Sprintf("case %d", index+1),
					}
				}
				c.WantError = val.Value
			default:
				return nil, &ParseError{
					Message:  fmt.Sprintf("unknown key '%s' in case", key),
					Location: fmt.Sprintf("case %d", index+1),
				}
			}
		}
		if !hasInput {
			return nil, &ParseError{Message: "case must have 'input'", Location: fmt.Sprintf("case %d", index+1)}
		}
	default:
		return nil, &ParseError{
			Message:  "case must be a string or a mapping",
			Location: fmt.Sprintf("case %d", index+1),
		}
	}

	if strings.ContainsAny(c.Input, "\r\n") {
		return nil, &ParseError{Message: "input must be a single line", Location: fmt.Sprintf("case '%s'", c.ID)}
	}
	if c.WantError != "" && c.WantValue != nil {
		return nil, &ParseError{Message: "wantError and wantValue are mutually exclusive", Location: fmt.Sprintf("case '%s'", c.ID)}
	}
	return c, nil
}
