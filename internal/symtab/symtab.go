package symtab

import (
	"fmt"
	"strings"

	"github.com/tsn-lang/tsn/internal/types"
)

// Table is one scope frame plus a link to its enclosing frame, forming a
// stack of scopes pushed and popped in lockstep with block entry and exit.
// Lookup is case-sensitive: TSN identifiers are case-sensitive, unlike the
// teacher's DWScript symbol table which normalizes to lowercase.
type Table struct {
	symbols map[string]*Symbol
	outer   *Table

	// Name labels a module-scoped table for diagnostics and qualified
	// lookup ("mod.name" resolves via the nested module table under this
	// name).
	Name string
}

// New creates an empty root scope.
func New() *Table {
	return &Table{symbols: make(map[string]*Symbol)}
}

// NewEnclosed creates a new scope nested inside outer.
func NewEnclosed(outer *Table) *Table {
	return &Table{symbols: make(map[string]*Symbol), outer: outer}
}

// Outer returns the enclosing scope, or nil at the root.
func (t *Table) Outer() *Table { return t.outer }

// Define inserts sym under name in the current scope. Defining a second
// SymFunc under an existing SymFunc name merges into the overload set; any
// other redefinition of a name already in this scope is an error.
func (t *Table) Define(name string, sym *Symbol) error {
	sym.Name = name
	if existing, ok := t.symbols[name]; ok {
		if existing.Kind == SymFunc && sym.Kind == SymFunc {
			existing.Overloads = append(existing.Overloads, sym.Overloads...)
			return nil
		}
		return fmt.Errorf("symtab: %q is already declared in this scope", name)
	}
	t.symbols[name] = sym
	return nil
}

// DefineVar is a convenience wrapper for a plain variable symbol.
func (t *Table) DefineVar(name string, typ *types.Type, readOnly bool) error {
	return t.Define(name, &Symbol{Kind: SymVar, VarType: typ, ReadOnly: readOnly})
}

// DefineCapture records a closure's captured variable.
func (t *Table) DefineCapture(name string, typ *types.Type, source string, byRef bool) error {
	return t.Define(name, &Symbol{Kind: SymCapture, VarType: typ, CaptureSource: source, CaptureByRef: byRef})
}

// DefineType registers a type symbol.
func (t *Table) DefineType(name string, typ *types.Type) error {
	return t.Define(name, &Symbol{Kind: SymType, Type_: typ})
}

// DefineModule registers a nested module scope under name.
func (t *Table) DefineModule(name string, mod *Table) error {
	mod.Name = name
	return t.Define(name, &Symbol{Kind: SymModule, Module: mod})
}

// DefineFunc adds fn to name's overload set, creating the set if needed.
func (t *Table) DefineFunc(name string, fn *types.Function) error {
	return t.Define(name, &Symbol{Kind: SymFunc, Overloads: []*types.Function{fn}})
}

// Get searches the current scope, then each enclosing scope in turn, for
// name.
func (t *Table) Get(name string) (*Symbol, bool) {
	if sym, ok := t.symbols[name]; ok {
		return sym, true
	}
	if t.outer != nil {
		return t.outer.Get(name)
	}
	return nil, false
}

// DeclaredHere reports whether name is defined in exactly this scope,
// ignoring enclosing scopes.
func (t *Table) DeclaredHere(name string) bool {
	_, ok := t.symbols[name]
	return ok
}

// Qualified resolves a dotted path such as "mod.name" or "Type.method": the
// first component is looked up as a module or type symbol in t, and every
// remaining component is looked up only inside that qualifier, never
// falling back to an enclosing scope.
func (t *Table) Qualified(path string) (*Symbol, bool) {
	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		return t.Get(parts[0])
	}

	head, ok := t.Get(parts[0])
	if !ok {
		return nil, false
	}

	for _, part := range parts[1:] {
		switch head.Kind {
		case SymModule:
			next, ok := head.Module.symbols[part]
			if !ok {
				return nil, false
			}
			head = next
		case SymType:
			next, ok := lookupMember(head.Type_, part)
			if !ok {
				return nil, false
			}
			head = next
		default:
			return nil, false
		}
	}
	return head, true
}

// lookupMember resolves a single dotted component against a type's own
// methods and properties, without consulting any symbol table scope —
// qualified type-member lookup is structural, not lexical.
func lookupMember(t *types.Type, name string) (*Symbol, bool) {
	if methods := t.MethodOverloads(name); len(methods) > 0 {
		fns := make([]*types.Function, len(methods))
		for i, m := range methods {
			fns[i] = m.Function
		}
		return &Symbol{Name: name, Kind: SymFunc, Overloads: fns}, true
	}
	if prop, ok := t.Property_(name); ok {
		return &Symbol{Name: name, Kind: SymVar, VarType: prop.Type, ReadOnly: !prop.CanWrite}, true
	}
	return nil, false
}
