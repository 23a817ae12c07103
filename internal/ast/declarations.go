package ast

import "github.com/tsn-lang/tsn/internal/source"

// Access mirrors a declaration's access modifier: public, private, or
// trusted.
type Access int

const (
	AccessPublic Access = iota
	AccessPrivate
	AccessTrusted
)

// FunctionDecl declares a free function, a static method, or an instance
// method (MethodOf non-empty). TemplateParams non-empty marks a template
// function, which is never directly callable.
type FunctionDecl struct {
	Body           *BlockStatement
	RetType        *TypeExpression
	Name           string
	MethodOf       string
	TemplateParams []string
	Params         []*Param
	Position       source.Position
	Access         Access
	IsStatic       bool
}

func (d *FunctionDecl) Pos() source.Position { return d.Position }
func (d *FunctionDecl) String() string       { return "function " + d.Name }
func (d *FunctionDecl) declNode()            {}

// PropertyDecl declares a class field, with optional getter/setter method
// names resolved by the compiler against the owning ClassDecl's methods.
type PropertyDecl struct {
	Init       Expression
	Type       *TypeExpression
	Name       string
	GetterName string
	SetterName string
	Position   source.Position
	Access     Access
	IsStatic   bool
}

func (d *PropertyDecl) Pos() source.Position { return d.Position }
func (d *PropertyDecl) String() string       { return "property " + d.Name }
func (d *PropertyDecl) declNode()            {}

// BaseSpec names one base class in a ClassDecl's inheritance list.
type BaseSpec struct {
	Position source.Position
	Name     string
	Access   Access
}

// ClassDecl declares a class: its bases, properties, methods, constructor,
// and destructor. TemplateParams non-empty marks it as a template type
// whose methods use Subtype as a placeholder.
type ClassDecl struct {
	Constructor    *FunctionDecl
	Destructor     *FunctionDecl
	Name           string
	TemplateParams []string
	Bases          []*BaseSpec
	Properties     []*PropertyDecl
	Methods        []*FunctionDecl
	Position       source.Position
	Access         Access
}

func (d *ClassDecl) Pos() source.Position { return d.Position }
func (d *ClassDecl) String() string       { return "class " + d.Name }
func (d *ClassDecl) declNode()            {}

// ModuleDecl groups declarations under a named module, mirrored at compile
// time by a Module with its own symbol table and data buffer.
type ModuleDecl struct {
	Name     string
	Decls    []Decl
	Position source.Position
}

func (d *ModuleDecl) Pos() source.Position { return d.Position }
func (d *ModuleDecl) String() string       { return "module " + d.Name }
func (d *ModuleDecl) declNode()            {}
