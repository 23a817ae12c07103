package compiler

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/symtab"
	"github.com/tsn-lang/tsn/internal/types"
)

// lowerCall resolves a call expression's callee by shape, one of five
// resolution patterns, and lowers it to param/call instructions.
//
//  1. A bare identifier naming a function/overload set in scope.
//  2. A member-expression callee ("a.b(...)") is always lowered as pattern 3:
//     its object is lowered as a value, so module-qualified ("mod.fn") and
//     type-qualified ("Type.method") names are not resolved here.
//  3. this.method(...) / expr.method(...) — an instance method, with an
//     implicit this_ptr argument prepended.
//  4. A variable holding a raw callback (a compiled lambda or function
//     pointer value) — called indirectly.
//  5. new Type(...) is handled separately by lowerNew, never reaching here.
func (c *Compiler) lowerCall(n *ast.CallExpression) (ir.Value, error) {
	argVals := make([]ir.Value, len(n.Args))
	argTypes := make([]*types.Type, len(n.Args))
	for i, a := range n.Args {
		v, err := c.lowerExpr(a)
		if err != nil {
			return ir.InvalidValue(), err
		}
		argVals[i] = v
		argTypes[i] = v.Type
	}

	switch callee := n.Callee.(type) {
	case *ast.Identifier:
		if sym, ok := c.block.scope.Get(callee.Name); ok && sym.Kind == symtab.SymFunc {
			return c.emitDirectCall(callee.Name, argVals, argTypes, n.Position)
		}
		target, err := c.lowerExpr(callee)
		if err != nil {
			return ir.InvalidValue(), err
		}
		return c.emitIndirectCall(target, argVals, n.Position)

	case *ast.MemberExpression:
		return c.lowerMethodCall(callee, argVals, argTypes, n.Position)

	default:
		target, err := c.lowerExpr(callee)
		if err != nil {
			return ir.InvalidValue(), err
		}
		return c.emitIndirectCall(target, argVals, n.Position)
	}
}

func (c *Compiler) emitDirectCall(name string, argVals []ir.Value, argTypes []*types.Type, pos source.Position) (ir.Value, error) {
	fn, err := c.block.scope.GetFunc(name, nil, argTypes, false)
	if err != nil {
		c.ctx.Diag.Errorf(pos, errAmbiguousFunctionName, "%v", err)
		return ir.Value{Kind: ir.Invalid, Type: c.ctx.Registry.ErrorType()}, nil
	}
	return c.emitCallTo(fn, argVals, pos)
}

func (c *Compiler) emitCallTo(fn *types.Function, argVals []ir.Value, pos source.Position) (ir.Value, error) {
	for _, a := range argVals {
		c.code.Emit(ir.Param(a, fn, pos))
	}
	var dst ir.Value
	var retType *types.Type
	if fn.Signature != nil && fn.Signature.Signature != nil {
		retType = fn.Signature.Signature.Return
	}
	if retType != nil && !isVoid(retType) {
		dst = c.code.NewReg(retType)
	} else {
		dst = ir.InvalidValue()
	}
	c.code.Emit(ir.Call(dst, fn, pos))
	return dst, nil
}

func (c *Compiler) lowerMethodCall(m *ast.MemberExpression, argVals []ir.Value, argTypes []*types.Type, pos source.Position) (ir.Value, error) {
	obj, err := c.lowerExpr(m.Object)
	if err != nil {
		return ir.InvalidValue(), err
	}
	if obj.Type == nil {
		return ir.InvalidValue(), fmt.Errorf("compiler: cannot call method %q on an untyped value", m.Name)
	}

	methods := obj.Type.MethodOverloads(m.Name)
	if len(methods) == 0 {
		return ir.InvalidValue(), fmt.Errorf("compiler: %s has no method %q", obj.Type.FQName, m.Name)
	}

	fn := methods[0]
	if len(methods) > 1 {
		for _, cand := range methods {
			if cand.Signature == nil || cand.Signature.Signature == nil {
				continue
			}
			if len(cand.Signature.Signature.Args) == len(argTypes) {
				fn = cand
				break
			}
		}
	}

	allArgs := append([]ir.Value{obj}, argVals...)
	return c.emitCallTo(fn, allArgs, pos)
}

func (c *Compiler) emitIndirectCall(target ir.Value, argVals []ir.Value, pos source.Position) (ir.Value, error) {
	for _, a := range argVals {
		c.code.Emit(ir.Param(a, nil, pos))
	}
	dst := c.code.NewReg(target.Type)
	c.code.Emit(ir.Call(dst, nil, pos))
	return dst, nil
}

func isVoid(t *types.Type) bool {
	return t != nil && t.FQName == "void"
}
