// Package symtab implements the Symbol Table: a stack of scope frames
// mapping names to variables, functions, types, modules, and captured
// variables, with overload sets and qualified lookup.
package symtab

import (
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/types"
)

// Kind tags which of a Symbol's shapes is populated.
type Kind int

const (
	SymInvalid Kind = iota
	SymVar
	SymFunc
	SymType
	SymModule
	SymCapture
)

func (k Kind) String() string {
	switch k {
	case SymVar:
		return "variable"
	case SymFunc:
		return "function"
	case SymType:
		return "type"
	case SymModule:
		return "module"
	case SymCapture:
		return "capture"
	}
	return "invalid"
}

// Symbol is the tagged union stored under one name in a scope frame. A
// name may resolve to a single variable/type/module/capture, or to an
// overload set of functions. Only functions share a name: symbols of
// different kinds cannot be defined under one name in the same scope.
type Symbol struct {
	Name string
	Kind Kind

	// Populated when Kind == SymVar or SymCapture. Value is the IR
	// location the compiler reads/writes for this variable — a register
	// copied in from an ir.Arg at function entry for parameters and
	// `this`, or a register assigned at the point of a let's initializer
	// for locals. Unset (the zero Value) until the declaring lowering
	// pass binds it.
	VarType  *types.Type
	ReadOnly bool
	Value    ir.Value

	// Populated when Kind == SymFunc. A non-overloaded function is a
	// single-element Overloads slice.
	Overloads []*types.Function

	// Populated when Kind == SymType.
	Type_ *types.Type

	// Populated when Kind == SymModule.
	Module *Table

	// CaptureSource names the enclosing-scope variable a capture symbol
	// was copied or referenced from, for the compiler's closure lowering.
	CaptureSource string
	CaptureByRef  bool
}

// IsOverloadSet reports whether sym names more than one function.
func (s *Symbol) IsOverloadSet() bool {
	return s.Kind == SymFunc && len(s.Overloads) > 1
}
