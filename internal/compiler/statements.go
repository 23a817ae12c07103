package compiler

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/ir"
)

// compileBlock lowers every statement in body under a freshly pushed
// scope, emitting that scope's stack-object teardown on exit.
func (c *Compiler) compileBlock(body *ast.BlockStatement) error {
	c.pushBlock()
	defer c.popBlock(body.Position)

	for _, stmt := range body.Statements {
		if err := c.lowerStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) lowerStmt(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.BlockStatement:
		return c.compileBlock(n)
	case *ast.ExpressionStatement:
		_, err := c.lowerExpr(n.Expr)
		return err
	case *ast.LetStatement:
		return c.lowerLet(n)
	case *ast.AssignmentStatement:
		return c.lowerAssignment(n)
	case *ast.IfStatement:
		return c.lowerIf(n)
	case *ast.ForStatement:
		return c.lowerFor(n)
	case *ast.WhileStatement:
		return c.lowerWhile(n)
	case *ast.DoWhileStatement:
		return c.lowerDoWhile(n)
	case *ast.ReturnStatement:
		return c.lowerReturn(n)
	case *ast.BreakStatement:
		return c.lowerBreak(n)
	case *ast.ContinueStatement:
		return c.lowerContinue(n)
	case *ast.ThrowStatement:
		return c.lowerThrow(n)
	default:
		return fmt.Errorf("compiler: unsupported statement node %T", s)
	}
}

func (c *Compiler) lowerLet(n *ast.LetStatement) error {
	var declaredType = n.Type
	var val ir.Value
	var err error
	if n.Init != nil {
		val, err = c.lowerExpr(n.Init)
		if err != nil {
			return err
		}
	}

	t := val.Type
	if declaredType != nil {
		t, err = c.resolveType(declaredType)
		if err != nil {
			return err
		}
		if n.Init != nil {
			val, err = c.convert(val, t, n.Position)
			if err != nil {
				return err
			}
		}
	}

	if err := c.block.scope.DefineVar(n.Name, t, false); err != nil {
		return fmt.Errorf("compiler: %v", err)
	}

	slot := c.code.NewReg(t)
	if n.Init != nil {
		c.code.Emit(ir.Assign(slot, val, n.Position))
	}
	sym, _ := c.block.scope.Get(n.Name)
	sym.Value = slot

	if t != nil && !t.Flags.IsTriviallyDestructible {
		c.block.objects = append(c.block.objects, stackObject{value: slot, typ: t})
	}
	return nil
}

func (c *Compiler) lowerAssignment(n *ast.AssignmentStatement) error {
	val, err := c.lowerExpr(n.Value)
	if err != nil {
		return err
	}

	switch target := n.Target.(type) {
	case *ast.Identifier:
		sym, ok := c.block.scope.Get(target.Name)
		if !ok {
			return fmt.Errorf("compiler: assignment to undefined identifier %q", target.Name)
		}
		if sym.ReadOnly {
			return fmt.Errorf("compiler: cannot assign to read-only variable %q", target.Name)
		}
		conv, err := c.convert(val, sym.VarType, n.Position)
		if err != nil {
			return err
		}
		dst := c.loadVar(sym)
		c.code.Emit(ir.Assign(dst, conv, n.Position))
		return nil

	case *ast.MemberExpression:
		obj, err := c.lowerExpr(target.Object)
		if err != nil {
			return err
		}
		if obj.Type == nil {
			return fmt.Errorf("compiler: assignment to member of an untyped value")
		}
		prop, ok := obj.Type.Property_(target.Name)
		if !ok {
			return fmt.Errorf("compiler: %s has no property %q", obj.Type.FQName, target.Name)
		}
		if !prop.CanWrite {
			return fmt.Errorf("compiler: property %q is read-only", target.Name)
		}
		conv, err := c.convert(val, prop.Type, n.Position)
		if err != nil {
			return err
		}
		off := ir.ImmInt64(int64(prop.Offset), nil)
		c.code.Emit(ir.Store(conv, obj, off, n.Position))
		return nil

	case *ast.IndexExpression:
		obj, err := c.lowerExpr(target.Object)
		if err != nil {
			return err
		}
		idx, err := c.lowerExpr(target.Index)
		if err != nil {
			return err
		}
		c.code.Emit(ir.Store(val, obj, idx, n.Position))
		return nil

	default:
		return fmt.Errorf("compiler: %T is not a valid assignment target", target)
	}
}

func (c *Compiler) lowerIf(n *ast.IfStatement) error {
	cond, err := c.lowerExpr(n.Cond)
	if err != nil {
		return err
	}

	thenLabel := c.code.NewLabel()
	elseLabel := c.code.NewLabel()
	join := c.code.NewLabel()

	c.code.Emit(ir.Branch(cond, thenLabel, n.Position))
	c.code.Emit(ir.Jump(elseLabel, n.Position))

	c.code.Emit(ir.Label(thenLabel, n.Position))
	if err := c.compileBlock(n.Then); err != nil {
		return err
	}
	c.code.Emit(ir.Jump(join, n.Position))

	c.code.Emit(ir.Label(elseLabel, n.Position))
	if n.Else != nil {
		if err := c.lowerStmt(n.Else); err != nil {
			return err
		}
	}

	c.code.Emit(ir.Label(join, n.Position))
	c.code.Emit(ir.MetaIfBranch(thenLabel, elseLabel, join, n.Position))
	return nil
}

func (c *Compiler) lowerWhile(n *ast.WhileStatement) error {
	top := c.code.NewLabel()
	body := c.code.NewLabel()
	end := c.code.NewLabel()

	c.code.Emit(ir.Label(top, n.Position))
	cond, err := c.lowerExpr(n.Cond)
	if err != nil {
		return err
	}
	c.code.Emit(ir.Branch(cond, body, n.Position))
	c.code.Emit(ir.Jump(end, n.Position))

	c.code.Emit(ir.Label(body, n.Position))
	c.pushLoopBlock(end, top)
	if err := c.compileBody(n.Body); err != nil {
		return err
	}
	c.popBlock(n.Position)
	c.code.Emit(ir.Jump(top, n.Position))

	c.code.Emit(ir.Label(end, n.Position))
	c.code.Emit(ir.MetaWhileLoop(body, end, n.Position))
	return nil
}

func (c *Compiler) lowerDoWhile(n *ast.DoWhileStatement) error {
	body := c.code.NewLabel()
	end := c.code.NewLabel()

	c.code.Emit(ir.Label(body, n.Position))
	c.pushLoopBlock(end, body)
	if err := c.compileBody(n.Body); err != nil {
		return err
	}
	c.popBlock(n.Position)

	cond, err := c.lowerExpr(n.Cond)
	if err != nil {
		return err
	}
	c.code.Emit(ir.Branch(cond, body, n.Position))

	c.code.Emit(ir.Label(end, n.Position))
	c.code.Emit(ir.MetaDoWhileLoop(body, n.Position))
	return nil
}

func (c *Compiler) lowerFor(n *ast.ForStatement) error {
	c.pushBlock()
	defer c.popBlock(n.Position)

	if n.Init != nil {
		if err := c.lowerStmt(n.Init); err != nil {
			return err
		}
	}

	top := c.code.NewLabel()
	body := c.code.NewLabel()
	post := c.code.NewLabel()
	end := c.code.NewLabel()

	c.code.Emit(ir.Label(top, n.Position))
	if n.Cond != nil {
		cond, err := c.lowerExpr(n.Cond)
		if err != nil {
			return err
		}
		c.code.Emit(ir.Branch(cond, body, n.Position))
		c.code.Emit(ir.Jump(end, n.Position))
	} else {
		c.code.Emit(ir.Jump(body, n.Position))
	}

	c.code.Emit(ir.Label(body, n.Position))
	c.pushLoopBlock(end, post)
	if err := c.compileBody(n.Body); err != nil {
		return err
	}
	c.popBlock(n.Position)

	c.code.Emit(ir.Label(post, n.Position))
	if n.Post != nil {
		if err := c.lowerStmt(n.Post); err != nil {
			return err
		}
	}
	c.code.Emit(ir.Jump(top, n.Position))

	c.code.Emit(ir.Label(end, n.Position))
	c.code.Emit(ir.MetaForLoop(body, end, n.Position))
	return nil
}

// compileBody lowers a loop body's statements directly into the
// already-pushed loop Block, without pushing a second nested scope — the
// loop Block itself is where break/continue labels live.
func (c *Compiler) compileBody(body *ast.BlockStatement) error {
	for _, stmt := range body.Statements {
		if err := c.lowerStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) lowerReturn(n *ast.ReturnStatement) error {
	var val ir.Value
	if n.Value != nil {
		v, err := c.lowerExpr(n.Value)
		if err != nil {
			return err
		}
		val = v
	} else {
		val = ir.InvalidValue()
	}
	c.teardownTo(nil, n.Position)
	c.code.Emit(ir.Ret(val, n.Position))
	return nil
}

func (c *Compiler) lowerBreak(n *ast.BreakStatement) error {
	loop, err := c.nearestLoop()
	if err != nil {
		return err
	}
	c.teardownTo(loop.parent, n.Position)
	c.code.Emit(ir.Jump(loop.breakLabel, n.Position))
	return nil
}

func (c *Compiler) lowerContinue(n *ast.ContinueStatement) error {
	loop, err := c.nearestLoop()
	if err != nil {
		return err
	}
	c.teardownTo(loop.parent, n.Position)
	c.code.Emit(ir.Jump(loop.continueLabel, n.Position))
	return nil
}

func (c *Compiler) lowerThrow(n *ast.ThrowStatement) error {
	val, err := c.lowerExpr(n.Value)
	if err != nil {
		return err
	}
	c.code.Emit(ir.Param(val, nil, n.Position))
	c.code.Emit(ir.Call(ir.InvalidValue(), nil, n.Position))
	return nil
}
