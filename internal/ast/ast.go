// Package ast defines the node shapes the TSN compiler consumes. The lexer
// and parser that build these trees are out of scope for this module;
// this package documents their output as an input contract, the same
// role an AST package plays for any front end that feeds a compiler.
package ast

import "github.com/tsn-lang/tsn/internal/source"

// Node is the base interface every AST node satisfies.
type Node interface {
	Pos() source.Position
	String() string
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// Decl is a top-level or class-member declaration.
type Decl interface {
	Node
	declNode()
}

// Program is the root of a parsed module.
type Program struct {
	ModuleName string
	Imports    []*ImportDecl
	Decls      []Decl
}

func (p *Program) Pos() source.Position {
	if len(p.Decls) > 0 {
		return p.Decls[0].Pos()
	}
	return source.Position{}
}
func (p *Program) String() string { return "program " + p.ModuleName }

// ImportDecl names a module this program depends on.
type ImportDecl struct {
	Position source.Position
	Module   string
	Alias    string
}

func (d *ImportDecl) Pos() source.Position { return d.Position }
func (d *ImportDecl) String() string       { return "import " + d.Module }
func (d *ImportDecl) declNode()            {}

// TypeExpression names a type as written in source: a simple name, or a
// template instantiation with explicit arguments ("Pair<f32>").
type TypeExpression struct {
	Position source.Position
	Name     string
	Args     []*TypeExpression
}

func (t *TypeExpression) Pos() source.Position { return t.Position }
func (t *TypeExpression) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	s := t.Name + "<"
	for i, a := range t.Args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return s + ">"
}
