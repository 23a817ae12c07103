package compiler

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/symtab"
	"github.com/tsn-lang/tsn/internal/types"
)

// declareClassSignature interns d's Type and every one of its methods'
// signatures, without compiling any bodies — so sibling classes can
// forward-reference each other.
func declareClassSignature(ctx *Context, scope *symtab.Table, d *ast.ClassDecl) error {
	var bases []types.Base
	for _, b := range d.Bases {
		sym, ok := scope.Get(b.Name)
		if !ok || sym.Kind != symtab.SymType {
			return fmt.Errorf("compiler: no such base type %q for class %q", b.Name, d.Name)
		}
		bases = append(bases, types.Base{Type: sym.Type_, Access: convertAccess(b.Access)})
	}

	t, err := ctx.Registry.Intern(types.Descriptor{
		SimpleName:         d.Name,
		FQName:             d.Name,
		Access:             convertAccess(d.Access),
		Bases:              bases,
		TemplateParamNames: d.TemplateParams,
		Flags:              types.Flags{IsTemplate: len(d.TemplateParams) > 0},
	})
	if err != nil {
		return err
	}
	if err := scope.DefineType(d.Name, t); err != nil {
		return err
	}

	classScope := symtab.NewEnclosed(scope)
	classScope.DefineType(d.Name, t)

	offset := 0
	for _, base := range bases {
		offset += base.Type.Size
	}

	for _, p := range d.Properties {
		pt, err := (&Compiler{ctx: ctx, block: &Block{scope: classScope}}).resolveType(p.Type)
		if err != nil {
			return err
		}
		prop := types.Property{
			Name:     p.Name,
			Type:     pt,
			Access:   convertAccess(p.Access),
			IsStatic: p.IsStatic,
			Offset:   offset,
			CanRead:  true,
			CanWrite: p.SetterName == "",
		}
		if p.GetterName != "" {
			prop.CanWrite = false
		}
		if p.SetterName != "" {
			prop.CanWrite = true
		}
		t.Properties = append(t.Properties, prop)
		if pt != nil {
			offset += pt.Size
		}
	}
	t.Size = offset

	declareMethod := func(m *ast.FunctionDecl) error {
		sig, _, err := buildSignature(ctx, classScope, m.Params, m.RetType, t)
		if err != nil {
			return err
		}
		fn := ctx.Registry.NewFunction(types.Function{
			SimpleName:  m.Name,
			DisplayName: t.SimpleName + "." + m.Name,
			FQName:      t.FQName + "." + m.Name,
			Signature:   sig,
			MethodOf:    t,
			IsStatic:    m.IsStatic,
			IsThisCall:  !m.IsStatic,
			Visibility:  convertAccess(m.Access),
		})
		t.Methods = append(t.Methods, types.Method{Function: fn})
		return nil
	}

	for _, m := range d.Methods {
		if err := declareMethod(m); err != nil {
			return err
		}
	}
	if d.Constructor != nil {
		ctor := *d.Constructor
		ctor.Name = "constructor"
		if err := declareMethod(&ctor); err != nil {
			return err
		}
	}
	if d.Destructor != nil {
		dtor := *d.Destructor
		dtor.Name = "destructor"
		if err := declareMethod(&dtor); err != nil {
			return err
		}
	}

	return nil
}

// compileClass compiles every method, then the constructor (validating that
// every property has a default) and the destructor (property teardown in
// reverse declaration order, then ret).
func compileClass(ctx *Context, scope *symtab.Table, d *ast.ClassDecl) error {
	sym, ok := scope.Get(d.Name)
	if !ok || sym.Kind != symtab.SymType {
		return fmt.Errorf("compiler: class %q was not declared", d.Name)
	}
	t := sym.Type_

	classScope := symtab.NewEnclosed(scope)
	classScope.DefineType(d.Name, t)

	for _, m := range d.Methods {
		if err := compileFunctionBody(ctx, classScope, m, t); err != nil {
			return err
		}
	}

	if d.Constructor != nil {
		if err := validatePropertyDefaults(t, d); err != nil {
			return err
		}
		ctor := *d.Constructor
		ctor.Name = "constructor"
		if err := compileFunctionBody(ctx, classScope, &ctor, t); err != nil {
			return err
		}
	}

	if d.Destructor != nil {
		dtor := *d.Destructor
		dtor.Name = "destructor"
		if err := compileDestructor(ctx, classScope, &dtor, t); err != nil {
			return err
		}
	}

	return nil
}

// validatePropertyDefaults requires that every property of the owning class
// is either primitive, has an initializer on its own property declaration,
// or has a zero-argument constructor. Constructor initializer lists are not
// consulted.
func validatePropertyDefaults(t *types.Type, d *ast.ClassDecl) error {
	initialized := make(map[string]bool, len(d.Properties))
	for _, p := range d.Properties {
		if p.Init != nil {
			initialized[p.Name] = true
		}
	}
	for i := range t.Properties {
		prop := &t.Properties[i]
		if prop.Type == nil || prop.Type.Flags.IsPrimitive {
			continue
		}
		if initialized[prop.Name] {
			continue
		}
		if _, ok := prop.Type.Method("constructor"); ok {
			ctors := prop.Type.MethodOverloads("constructor")
			hasDefault := false
			for _, c := range ctors {
				if c.Signature != nil && c.Signature.Signature != nil && len(c.Signature.Signature.Args) == 1 {
					hasDefault = true // only the implicit this_ptr argument
					break
				}
			}
			if hasDefault {
				continue
			}
		}
		return fmt.Errorf("compiler: property %s.%s has no default constructor", t.FQName, prop.Name)
	}
	return nil
}

// compileDestructor compiles the user-written body, then appends, in
// reverse declaration order, a destructor call for every non-primitive
// property, then a bare ret.
func compileDestructor(ctx *Context, scope *symtab.Table, d *ast.FunctionDecl, t *types.Type) error {
	var fn *types.Function
	for _, m := range t.MethodOverloads("destructor") {
		fn = m
	}
	if fn == nil {
		return fmt.Errorf("compiler: destructor for %q has no declared signature", t.FQName)
	}

	bodyScope := symtab.NewEnclosed(scope)
	fc := newFunctionCompiler(ctx, fn, bodyScope, nil)
	if err := fc.bindParam(bodyScope, "this", t, 0, d.Position); err != nil {
		return err
	}

	if d.Body != nil {
		if err := fc.compileBlock(d.Body); err != nil {
			return err
		}
	}

	thisSym, _ := bodyScope.Get("this")
	thisVal := thisSym.Value
	for i := len(t.Properties) - 1; i >= 0; i-- {
		prop := t.Properties[i]
		if prop.Type == nil || prop.Type.Flags.IsPrimitive {
			continue
		}
		dtor, ok := prop.Type.Method("destructor")
		if !ok {
			continue
		}
		off := ir.ImmInt64(int64(prop.Offset), nil)
		fieldVal := fc.code.NewReg(prop.Type)
		fc.code.Emit(ir.Load(fieldVal, thisVal, off, d.Position))
		fc.code.Emit(ir.Param(fieldVal, dtor, d.Position))
		fc.code.Emit(ir.Call(ir.InvalidValue(), dtor, d.Position))
	}
	fc.code.Emit(ir.Ret(ir.InvalidValue(), d.Position))
	return nil
}
