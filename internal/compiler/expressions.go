package compiler

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/symtab"
	"github.com/tsn-lang/tsn/internal/types"
)

// lowerExpr lowers an expression to an IR value. Every case either returns
// an ir.Imm value directly (literals) or emits instructions into c.code and
// returns the register/stack Value holding the result.
func (c *Compiler) lowerExpr(e ast.Expression) (ir.Value, error) {
	switch n := e.(type) {
	case *ast.IntegerLiteral:
		return ir.ImmInt64(n.Value, c.ctx.Registry.GetPrimitive(types.I64)), nil
	case *ast.UnsignedLiteral:
		return ir.ImmUint64(n.Value, c.ctx.Registry.GetPrimitive(types.U64)), nil
	case *ast.FloatLiteral:
		return ir.ImmFloat32(n.Value, c.ctx.Registry.GetPrimitive(types.F32)), nil
	case *ast.DoubleLiteral:
		return ir.ImmFloat64(n.Value, c.ctx.Registry.GetPrimitive(types.F64)), nil
	case *ast.BoolLiteral:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return ir.ImmInt64(v, c.ctx.Registry.GetPrimitive(types.Bool)), nil
	case *ast.StringLiteral:
		return ir.ImmBytes([]byte(n.Value), c.ctx.Registry.GetPrimitive(types.String)), nil
	case *ast.Identifier:
		return c.lowerIdentifier(n)
	case *ast.ThisExpression:
		return c.lowerThis(n)
	case *ast.BinaryExpression:
		return c.lowerBinary(n)
	case *ast.UnaryExpression:
		return c.lowerUnary(n)
	case *ast.TernaryExpression:
		return c.lowerTernary(n)
	case *ast.CallExpression:
		return c.lowerCall(n)
	case *ast.MemberExpression:
		return c.lowerMember(n)
	case *ast.IndexExpression:
		return c.lowerIndex(n)
	case *ast.NewExpression:
		return c.lowerNew(n)
	case *ast.LambdaExpression:
		return c.lowerLambda(n)
	default:
		return ir.InvalidValue(), fmt.Errorf("compiler: unsupported expression node %T", e)
	}
}

func (c *Compiler) lowerIdentifier(n *ast.Identifier) (ir.Value, error) {
	sym, ok := c.block.scope.Get(n.Name)
	if !ok {
		c.ctx.Diag.Errorf(n.Position, errUndefinedIdentifier, "undefined identifier %q", n.Name)
		return ir.Value{Kind: ir.Invalid, Type: c.ctx.Registry.ErrorType()}, nil
	}
	switch sym.Kind {
	case symtab.SymVar:
		return c.loadVar(sym), nil
	case symtab.SymCapture:
		if v, ok := c.captures[n.Name]; ok {
			return v, nil
		}
		return c.loadVar(sym), nil
	default:
		return ir.InvalidValue(), fmt.Errorf("compiler: %q does not name a value", n.Name)
	}
}

// loadVar returns the IR location a variable symbol was bound to at its
// declaration: bindParam's register copy for a parameter or `this`, or
// lowerLet's result register for a local. Every read and write of the same
// symbol therefore resolves to the same location.
func (c *Compiler) loadVar(sym *symtab.Symbol) ir.Value {
	return sym.Value
}

func (c *Compiler) lowerThis(n *ast.ThisExpression) (ir.Value, error) {
	sym, ok := c.block.scope.Get("this")
	if !ok {
		return ir.InvalidValue(), fmt.Errorf("compiler: 'this' used outside of a method body")
	}
	return c.loadVar(sym), nil
}

var binOpTable = map[string]struct {
	i, u, f, d ir.OpCode
}{
	"+": {ir.OpIAdd, ir.OpUAdd, ir.OpFAdd, ir.OpDAdd},
	"-": {ir.OpISub, ir.OpUSub, ir.OpFSub, ir.OpDSub},
	"*": {ir.OpIMul, ir.OpUMul, ir.OpFMul, ir.OpDMul},
	"/": {ir.OpIDiv, ir.OpUDiv, ir.OpFDiv, ir.OpDDiv},
	"%": {ir.OpIMod, ir.OpUMod, ir.OpFMod, ir.OpDMod},
}

var cmpOpTable = map[string]struct {
	i, u, f, d ir.OpCode
}{
	"<":  {ir.OpILt, ir.OpULt, ir.OpFLt, ir.OpDLt},
	"<=": {ir.OpILte, ir.OpULte, ir.OpFLte, ir.OpDLte},
	">":  {ir.OpIGt, ir.OpUGt, ir.OpFGt, ir.OpDGt},
	">=": {ir.OpIGte, ir.OpUGte, ir.OpFGte, ir.OpDGte},
	"==": {ir.OpIEq, ir.OpUEq, ir.OpFEq, ir.OpDEq},
	"!=": {ir.OpINeq, ir.OpUNeq, ir.OpFNeq, ir.OpDNeq},
}

// pickArith selects the opcode variant for t out of the four arithmetic
// shapes the IR carries: signed, unsigned, f32, and f64.
func pickArith(t *types.Type, shapes struct{ i, u, f, d ir.OpCode }) ir.OpCode {
	switch {
	case t.Flags.IsUnsigned:
		return shapes.u
	case t.Flags.IsFloatingPoint && t.Size == 4:
		return shapes.f
	case t.Flags.IsFloatingPoint:
		return shapes.d
	default:
		return shapes.i
	}
}

func (c *Compiler) lowerBinary(n *ast.BinaryExpression) (ir.Value, error) {
	if n.Operator == "&&" || n.Operator == "||" {
		return c.lowerShortCircuit(n)
	}

	left, err := c.lowerExpr(n.Left)
	if err != nil {
		return ir.InvalidValue(), err
	}
	right, err := c.lowerExpr(n.Right)
	if err != nil {
		return ir.InvalidValue(), err
	}

	resultType, err := c.arithResultType(left.Type, right.Type)
	if err != nil {
		return ir.InvalidValue(), err
	}
	left, err = c.convert(left, resultType, n.Position)
	if err != nil {
		return ir.InvalidValue(), err
	}
	right, err = c.convert(right, resultType, n.Position)
	if err != nil {
		return ir.InvalidValue(), err
	}

	if shapes, ok := binOpTable[n.Operator]; ok {
		op := pickArith(resultType, shapes)
		dst := c.code.NewReg(resultType)
		c.code.Emit(ir.BinOp(op, dst, left, right, n.Position))
		return dst, nil
	}
	if shapes, ok := cmpOpTable[n.Operator]; ok {
		op := pickArith(resultType, shapes)
		boolType := c.ctx.Registry.GetPrimitive(types.Bool)
		dst := c.code.NewReg(boolType)
		c.code.Emit(ir.BinOp(op, dst, left, right, n.Position))
		return dst, nil
	}

	switch n.Operator {
	case "&":
		return c.emitBin(ir.OpBAnd, left, right, resultType, n.Position)
	case "|":
		return c.emitBin(ir.OpBOr, left, right, resultType, n.Position)
	case "^":
		return c.emitBin(ir.OpXor, left, right, resultType, n.Position)
	case "<<":
		return c.emitBin(ir.OpShl, left, right, resultType, n.Position)
	case ">>":
		return c.emitBin(ir.OpShr, left, right, resultType, n.Position)
	}
	return ir.InvalidValue(), fmt.Errorf("compiler: unsupported binary operator %q", n.Operator)
}

func (c *Compiler) emitBin(op ir.OpCode, left, right ir.Value, t *types.Type, pos source.Position) (ir.Value, error) {
	dst := c.code.NewReg(t)
	c.code.Emit(ir.BinOp(op, dst, left, right, pos))
	return dst, nil
}

// lowerShortCircuit lowers && and || to explicit branches rather than an
// opcode: both are control flow, not arithmetic, since the right operand
// must not be evaluated unless needed.
func (c *Compiler) lowerShortCircuit(n *ast.BinaryExpression) (ir.Value, error) {
	boolType := c.ctx.Registry.GetPrimitive(types.Bool)
	result := c.code.NewReg(boolType)

	left, err := c.lowerExpr(n.Left)
	if err != nil {
		return ir.InvalidValue(), err
	}
	c.code.Emit(ir.Assign(result, left, n.Position))

	shortCircuit := c.code.NewLabel()
	evalRight := c.code.NewLabel()
	join := c.code.NewLabel()

	if n.Operator == "&&" {
		c.code.Emit(ir.Branch(left, evalRight, n.Position))
		c.code.Emit(ir.Jump(shortCircuit, n.Position))
	} else {
		c.code.Emit(ir.Branch(left, shortCircuit, n.Position))
		c.code.Emit(ir.Jump(evalRight, n.Position))
	}

	c.code.Emit(ir.Label(evalRight, n.Position))
	right, err := c.lowerExpr(n.Right)
	if err != nil {
		return ir.InvalidValue(), err
	}
	c.code.Emit(ir.Assign(result, right, n.Position))
	c.code.Emit(ir.Jump(join, n.Position))

	c.code.Emit(ir.Label(shortCircuit, n.Position))
	c.code.Emit(ir.Label(join, n.Position))

	return result, nil
}

func (c *Compiler) lowerUnary(n *ast.UnaryExpression) (ir.Value, error) {
	operand, err := c.lowerExpr(n.Operand)
	if err != nil {
		return ir.InvalidValue(), err
	}
	switch n.Operator {
	case "-":
		op := ir.OpINeg
		if operand.Type != nil && operand.Type.Flags.IsFloatingPoint {
			if operand.Type.Size == 4 {
				op = ir.OpFNeg
			} else {
				op = ir.OpDNeg
			}
		}
		dst := c.code.NewReg(operand.Type)
		c.code.Emit(ir.UnOp(op, dst, operand, n.Position))
		return dst, nil
	case "!":
		dst := c.code.NewReg(operand.Type)
		c.code.Emit(ir.UnOp(ir.OpNot, dst, operand, n.Position))
		return dst, nil
	case "~":
		dst := c.code.NewReg(operand.Type)
		c.code.Emit(ir.UnOp(ir.OpInv, dst, operand, n.Position))
		return dst, nil
	}
	return ir.InvalidValue(), fmt.Errorf("compiler: unsupported unary operator %q", n.Operator)
}

// lowerTernary lowers cond ? then : else identically to an if/else that
// assigns a shared result register.
func (c *Compiler) lowerTernary(n *ast.TernaryExpression) (ir.Value, error) {
	cond, err := c.lowerExpr(n.Cond)
	if err != nil {
		return ir.InvalidValue(), err
	}

	thenLabel := c.code.NewLabel()
	elseLabel := c.code.NewLabel()
	join := c.code.NewLabel()

	c.code.Emit(ir.Branch(cond, thenLabel, n.Position))
	c.code.Emit(ir.Jump(elseLabel, n.Position))

	c.code.Emit(ir.Label(thenLabel, n.Position))
	thenVal, err := c.lowerExpr(n.Then)
	if err != nil {
		return ir.InvalidValue(), err
	}
	result := c.code.NewReg(thenVal.Type)
	c.code.Emit(ir.Assign(result, thenVal, n.Position))
	c.code.Emit(ir.Jump(join, n.Position))

	c.code.Emit(ir.Label(elseLabel, n.Position))
	elseVal, err := c.lowerExpr(n.Else)
	if err != nil {
		return ir.InvalidValue(), err
	}
	c.code.Emit(ir.Assign(result, elseVal, n.Position))

	c.code.Emit(ir.Label(join, n.Position))
	return result, nil
}

func (c *Compiler) lowerIndex(n *ast.IndexExpression) (ir.Value, error) {
	obj, err := c.lowerExpr(n.Object)
	if err != nil {
		return ir.InvalidValue(), err
	}
	idx, err := c.lowerExpr(n.Index)
	if err != nil {
		return ir.InvalidValue(), err
	}
	dst := c.code.NewReg(obj.Type)
	c.code.Emit(ir.Load(dst, obj, idx, n.Position))
	return dst, nil
}

func (c *Compiler) lowerMember(n *ast.MemberExpression) (ir.Value, error) {
	// Qualified module/type member ("mod.name", "Type.Member") resolves
	// structurally against the symbol table before falling back to a
	// runtime property load.
	if ident, ok := n.Object.(*ast.Identifier); ok {
		if sym, ok := c.block.scope.Qualified(ident.Name + "." + n.Name); ok {
			switch sym.Kind {
			case symtab.SymVar:
				return c.loadVar(sym), nil
			}
		}
	}

	obj, err := c.lowerExpr(n.Object)
	if err != nil {
		return ir.InvalidValue(), err
	}
	if obj.Type == nil {
		return ir.InvalidValue(), fmt.Errorf("compiler: cannot access member %q of an untyped value", n.Name)
	}
	prop, ok := obj.Type.Property_(n.Name)
	if !ok {
		return ir.InvalidValue(), fmt.Errorf("compiler: %s has no property %q", obj.Type.FQName, n.Name)
	}
	dst := c.code.NewReg(prop.Type)
	off := ir.ImmInt64(int64(prop.Offset), nil)
	c.code.Emit(ir.Load(dst, obj, off, n.Position))
	return dst, nil
}

func (c *Compiler) lowerNew(n *ast.NewExpression) (ir.Value, error) {
	t, err := c.resolveType(n.Type)
	if err != nil {
		return ir.InvalidValue(), err
	}

	argTypes := make([]*types.Type, len(n.Args))
	argVals := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := c.lowerExpr(a)
		if err != nil {
			return ir.InvalidValue(), err
		}
		argVals[i] = v
		argTypes[i] = v.Type
	}

	size := ir.ImmInt64(int64(t.Size), nil)
	dst := c.code.NewReg(t)
	c.code.Emit(ir.StackAlloc(dst, size, n.Position))

	ctor, ok := t.Method("constructor")
	if ok {
		for _, a := range argVals {
			c.code.Emit(ir.Param(a, ctor, n.Position))
		}
		c.code.Emit(ir.Call(ir.InvalidValue(), ctor, n.Position))
	}
	return dst, nil
}
