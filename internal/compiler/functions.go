package compiler

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/symtab"
	"github.com/tsn-lang/tsn/internal/types"
)

// Compile lowers an entire module's declarations: a first pass declares
// every type and function signature so forward references resolve, then a
// second pass compiles every function body. Running both passes per module
// makes the whole compile reentrant across modules that reference each
// other.
func Compile(ctx *Context, prog *ast.Program) error {
	scope := ctx.Globals

	for _, decl := range prog.Decls {
		if err := declareSignature(ctx, scope, decl); err != nil {
			return err
		}
	}
	for _, decl := range prog.Decls {
		if err := compileDecl(ctx, scope, decl); err != nil {
			return err
		}
	}
	return nil
}

func declareSignature(ctx *Context, scope *symtab.Table, decl ast.Decl) error {
	switch d := decl.(type) {
	case *ast.FunctionDecl:
		return declareFunctionSignature(ctx, scope, d)
	case *ast.ClassDecl:
		return declareClassSignature(ctx, scope, d)
	case *ast.ModuleDecl:
		modScope := symtab.NewEnclosed(scope)
		for _, inner := range d.Decls {
			if err := declareSignature(ctx, modScope, inner); err != nil {
				return err
			}
		}
		return scope.DefineModule(d.Name, modScope)
	}
	return nil
}

func buildSignature(ctx *Context, scope *symtab.Table, params []*ast.Param, retType *ast.TypeExpression, methodOf *types.Type) (*types.Type, []*types.Type, error) {
	tmp := &Compiler{ctx: ctx, block: &Block{scope: scope}}

	var args []types.SigArg
	if methodOf != nil {
		args = append(args, types.SigArg{Type: methodOf, Implicit: types.ImplicitThisPtr, ByPointer: true})
	}

	paramTypes := make([]*types.Type, len(params))
	for i, p := range params {
		pt, err := tmp.resolveType(p.Type)
		if err != nil {
			return nil, nil, err
		}
		paramTypes[i] = pt
		args = append(args, types.SigArg{Type: pt, ByPointer: p.ByPointer})
	}

	ret, err := tmp.resolveType(retType)
	if err != nil {
		return nil, nil, err
	}

	sig, err := ctx.Registry.InternSignature(&types.Signature{Args: args, Return: ret})
	return sig, paramTypes, err
}

func declareFunctionSignature(ctx *Context, scope *symtab.Table, d *ast.FunctionDecl) error {
	sig, _, err := buildSignature(ctx, scope, d.Params, d.RetType, nil)
	if err != nil {
		return err
	}
	fn := ctx.Registry.NewFunction(types.Function{
		SimpleName: d.Name,
		DisplayName: d.Name,
		FQName:     d.Name,
		Signature:  sig,
		IsStatic:   true,
		IsTemplate: len(d.TemplateParams) > 0,
		Visibility: convertAccess(d.Access),
	})
	return scope.DefineFunc(d.Name, fn)
}

func convertAccess(a ast.Access) types.Access {
	switch a {
	case ast.AccessPrivate:
		return types.AccessPrivate
	case ast.AccessTrusted:
		return types.AccessTrusted
	default:
		return types.AccessPublic
	}
}

func compileDecl(ctx *Context, scope *symtab.Table, decl ast.Decl) error {
	switch d := decl.(type) {
	case *ast.FunctionDecl:
		return compileFunctionBody(ctx, scope, d, nil)
	case *ast.ClassDecl:
		return compileClass(ctx, scope, d)
	case *ast.ModuleDecl:
		sym, ok := scope.Get(d.Name)
		if !ok || sym.Kind != symtab.SymModule {
			return fmt.Errorf("compiler: module %q was not declared", d.Name)
		}
		for _, inner := range d.Decls {
			if err := compileDecl(ctx, sym.Module, inner); err != nil {
				return err
			}
		}
	}
	return nil
}

// compileFunctionBody lowers d's body. methodOf non-nil marks it as an
// instance method, whose implicit this_ptr is defined as "this" in the
// body's scope.
func compileFunctionBody(ctx *Context, scope *symtab.Table, d *ast.FunctionDecl, methodOf *types.Type) error {
	if d.Body == nil {
		return nil // forward declaration / host-bound signature only
	}

	var fn *types.Function
	if methodOf != nil {
		for _, m := range methodOf.MethodOverloads(d.Name) {
			fn = m
			break
		}
	} else if sym, ok := scope.Get(d.Name); ok && sym.Kind == symtab.SymFunc {
		fn = sym.Overloads[0]
	}
	if fn == nil {
		return fmt.Errorf("compiler: function %q has no declared signature", d.Name)
	}

	bodyScope := symtab.NewEnclosed(scope)
	fc := newFunctionCompiler(ctx, fn, bodyScope, nil)

	argIdx := 0
	if methodOf != nil {
		if err := fc.bindParam(bodyScope, "this", methodOf, argIdx, d.Position); err != nil {
			return err
		}
		argIdx++
	}
	for i, p := range d.Params {
		pt := fn.Signature.Signature.Args[i+boolToInt(methodOf != nil)].Type
		if err := fc.bindParam(bodyScope, p.Name, pt, argIdx, d.Position); err != nil {
			return err
		}
		argIdx++
	}

	if err := fc.compileBlock(d.Body); err != nil {
		return err
	}

	retType := fn.Signature.Signature.Return
	if isVoid(retType) {
		fc.code.Emit(ir.Ret(ir.InvalidValue(), d.Position))
	}
	fn.CompiledEntry = -1 // assigned by the VM backend's lowering pass
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
