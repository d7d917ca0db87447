// Package ast defines the types of parsed batch suites. A suite is a named
// list of expression cases with optional expectations, loaded from YAML or
// JSON and run by the runtime engine.
package ast

// Suite represents a complete parsed batch suite.
type Suite struct {
	// Name identifies the suite in reports.
	Name string

	// MaxDepth overrides the translator's operator stack bound (0 keeps
	// the default).
	MaxDepth int

	// Verify cross-checks each well-formed case by evaluating the postfix
	// output and comparing it with an independent parse of the input.
	Verify bool

	// Cases is the ordered list of expressions to translate.
	Cases []*Case
}

// Case represents a single expression and what it should translate to.
type Case struct {
	// ID is unique within the suite. Defaults to "case-<n>".
	ID string

	// Input is one line of infix text.
	Input string

	// Want is the expected printed output line.
	Want string

	// HasWant indicates whether Want was specified, since "" is a valid
	// expected output for an empty line.
	HasWant bool

	// WantValue is the expected value of the postfix output (nil if unchecked).
	WantValue *int64

	// WantError is the expected error kind ("" if the case must succeed or
	// is unchecked).
	WantError string
}

// HasExpectations reports whether the case checks anything beyond running.
func (c *Case) HasExpectations() bool {
	return c.HasWant || c.WantValue != nil || c.WantError != ""
}
