// Package source defines the position type shared by the AST input contract
// and the IR, so every node and instruction can be traced back to the text
// that produced it without either side depending on a concrete lexer.
package source

import "fmt"

// Position identifies a location in a source file.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

// String renders the position as "file:line:column", omitting the file when
// it is empty (useful for hand-built ASTs in tests).
func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// IsZero reports whether the position carries no information.
func (p Position) IsZero() bool {
	return p == Position{}
}
