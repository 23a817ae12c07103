package types

import (
	"fmt"
	"io"

	"github.com/tidwall/sjson"
)

// Descriptor is the input to Intern: everything needed to build a Type that
// does not yet exist. FQName is the only required field; Intern is total
// over it.
type Descriptor struct {
	SimpleName         string
	FQName             string
	Size               int
	Access             Access
	Flags              Flags
	Bases              []Base
	Properties         []Property
	Methods            []Method
	Signature          *Signature
	TemplateParamNames []string
	TemplateAST        any
}

// Registry is the Context-scoped, per-compile store of every Type and
// Function. It is never a package-level global: a new Registry is created
// per Context and owns the lifetime of everything it interns.
type Registry struct {
	byName map[string]*Type
	byID   map[ID]*Type

	funcsByName map[string][]*Function
	funcsByID   map[ID]*Function

	primitives map[PrimitiveKind]*Type

	nextTypeID ID
	nextFuncID ID
}

// NewRegistry creates an empty Registry and interns the built-in primitive
// types.
func NewRegistry() *Registry {
	r := &Registry{
		byName:      make(map[string]*Type),
		byID:        make(map[ID]*Type),
		funcsByName: make(map[string][]*Function),
		funcsByID:   make(map[ID]*Function),
		primitives:  make(map[PrimitiveKind]*Type),
		nextTypeID:  1, // id 0 is reserved
		nextFuncID:  1,
	}
	r.registerPrimitives()
	return r
}

func (r *Registry) allocTypeID() ID {
	id := r.nextTypeID
	r.nextTypeID++
	return id
}

func (r *Registry) allocFuncID() ID {
	id := r.nextFuncID
	r.nextFuncID++
	return id
}

// Intern returns the existing Type with d.FQName if one exists, otherwise
// creates and registers a fresh one. Interning is total over FQName: two
// calls with the same name always return the same object.
func (r *Registry) Intern(d Descriptor) (*Type, error) {
	if d.FQName == "" {
		return nil, fmt.Errorf("types: cannot intern a type with an empty fully-qualified name")
	}
	if existing, ok := r.byName[d.FQName]; ok {
		return existing, nil
	}
	t := &Type{
		ID:                 r.allocTypeID(),
		SimpleName:         d.SimpleName,
		FQName:             d.FQName,
		Size:               d.Size,
		Access:             d.Access,
		Flags:              d.Flags,
		Bases:              d.Bases,
		Properties:         d.Properties,
		Methods:            d.Methods,
		Signature:          d.Signature,
		TemplateParamNames: d.TemplateParamNames,
		TemplateAST:        d.TemplateAST,
	}
	r.byName[d.FQName] = t
	r.byID[t.ID] = t
	return t, nil
}

// LookupByName returns the Type registered under the given fully-qualified
// name, or false if none exists. Lookup never fails — only not-found.
func (r *Registry) LookupByName(fqName string) (*Type, bool) {
	t, ok := r.byName[fqName]
	return t, ok
}

// LookupByID returns the Type with the given id, or false if none exists.
func (r *Registry) LookupByID(id ID) (*Type, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// InternSignature interns a function-signature Type built from sig, using a
// canonical name derived from its argument and return types so structurally
// identical signatures intern to the same Type.
func (r *Registry) InternSignature(sig *Signature) (*Type, error) {
	name := signatureName(sig)
	return r.Intern(Descriptor{
		SimpleName: name,
		FQName:     name,
		Size:       8, // function pointers are single-word handles
		Flags:      Flags{IsFunction: true},
		Signature:  sig,
	})
}

func signatureName(sig *Signature) string {
	name := "func("
	for i, a := range sig.Args {
		if i > 0 {
			name += ","
		}
		if a.Type != nil {
			name += a.Type.FQName
		}
		if a.ByPointer {
			name += "&"
		}
	}
	name += ")"
	if sig.Return != nil {
		name += ":" + sig.Return.FQName
	}
	return name
}

// NewFunction allocates and registers a Function. Functions are not
// interned by name; overloads are expected and are distinguished by the
// Symbol Table's overload sets, not by the registry.
func (r *Registry) NewFunction(f Function) *Function {
	f.ID = r.allocFuncID()
	fn := &f
	r.funcsByID[fn.ID] = fn
	r.funcsByName[fn.FQName] = append(r.funcsByName[fn.FQName], fn)
	return fn
}

// FunctionsByName returns every registered function (all overloads) with
// the given fully-qualified name.
func (r *Registry) FunctionsByName(fqName string) []*Function {
	return r.funcsByName[fqName]
}

// FunctionByID returns the function with the given id, or false if none
// exists.
func (r *Registry) FunctionByID(id ID) (*Function, bool) {
	fn, ok := r.funcsByID[id]
	return fn, ok
}

// AllTypes returns every interned type in ascending ID order, for the CLI's
// `-o types` dump mode.
func (r *Registry) AllTypes() []*Type {
	out := make([]*Type, 0, len(r.byID))
	for id := ID(1); id < r.nextTypeID; id++ {
		if t, ok := r.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

// AllFunctions returns every registered function in ascending ID order, for
// the CLI's `-o funcs` dump mode.
func (r *Registry) AllFunctions() []*Function {
	out := make([]*Function, 0, len(r.funcsByID))
	for id := ID(1); id < r.nextFuncID; id++ {
		if fn, ok := r.funcsByID[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Dump writes every interned type and registered function as JSON to w, in
// ascending ID order. This is the same data the CLI's `-o types`/`-o funcs`
// modes surface, built directly off AllTypes/AllFunctions so the two never
// drift apart.
func (r *Registry) Dump(w io.Writer) error {
	out := "{}"
	var err error
	for _, t := range r.AllTypes() {
		if out, err = sjson.Set(out, "types.-1", t.FQName); err != nil {
			return err
		}
	}
	for _, fn := range r.AllFunctions() {
		if out, err = sjson.Set(out, "funcs.-1", fn.FQName); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, out)
	return err
}

// ErrorType returns the sentinel type used by a failed symbol lookup: an
// "error_var" diagnostic carries this as its type. Compiler code that
// lowers an expression whose type is ErrorType must treat it as a silent
// no-op, to avoid cascading diagnostics from one bad identifier.
func (r *Registry) ErrorType() *Type {
	t, ok := r.LookupByName("<error>")
	if ok {
		return t
	}
	t, _ = r.Intern(Descriptor{SimpleName: "<error>", FQName: "<error>", Flags: Flags{IsAnonymous: true}})
	return t
}

// IsErrorType reports whether t is the registry's error sentinel.
func IsErrorType(t *Type) bool {
	return t != nil && t.FQName == "<error>"
}
