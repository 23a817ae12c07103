package compiler

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/symtab"
	"github.com/tsn-lang/tsn/internal/types"
)

// freeVariables collects every identifier referenced in body that is not
// declared within body itself and not a parameter — the lambda's capture
// set: for each free variable not declared inside its own body, the
// lambda captures the enclosing scope's value.
func freeVariables(params []*ast.Param, body *ast.BlockStatement) []string {
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}
	seen := make(map[string]bool)
	var free []string

	var visitExpr func(ast.Expression)
	var visitStmt func(ast.Statement)

	visitExpr = func(e ast.Expression) {
		switch n := e.(type) {
		case *ast.Identifier:
			if !declared[n.Name] && !seen[n.Name] {
				seen[n.Name] = true
				free = append(free, n.Name)
			}
		case *ast.BinaryExpression:
			visitExpr(n.Left)
			visitExpr(n.Right)
		case *ast.UnaryExpression:
			visitExpr(n.Operand)
		case *ast.TernaryExpression:
			visitExpr(n.Cond)
			visitExpr(n.Then)
			visitExpr(n.Else)
		case *ast.CallExpression:
			visitExpr(n.Callee)
			for _, a := range n.Args {
				visitExpr(a)
			}
		case *ast.MemberExpression:
			visitExpr(n.Object)
		case *ast.IndexExpression:
			visitExpr(n.Object)
			visitExpr(n.Index)
		case *ast.NewExpression:
			for _, a := range n.Args {
				visitExpr(a)
			}
		case *ast.LambdaExpression:
			for _, inner := range freeVariables(n.Params, n.Body) {
				if !declared[inner] && !seen[inner] {
					seen[inner] = true
					free = append(free, inner)
				}
			}
		}
	}

	visitStmt = func(s ast.Statement) {
		switch n := s.(type) {
		case *ast.BlockStatement:
			for _, inner := range n.Statements {
				visitStmt(inner)
			}
		case *ast.ExpressionStatement:
			visitExpr(n.Expr)
		case *ast.LetStatement:
			if n.Init != nil {
				visitExpr(n.Init)
			}
			declared[n.Name] = true
		case *ast.AssignmentStatement:
			visitExpr(n.Target)
			visitExpr(n.Value)
		case *ast.IfStatement:
			visitExpr(n.Cond)
			visitStmt(n.Then)
			if n.Else != nil {
				visitStmt(n.Else)
			}
		case *ast.ForStatement:
			if n.Init != nil {
				visitStmt(n.Init)
			}
			if n.Cond != nil {
				visitExpr(n.Cond)
			}
			if n.Post != nil {
				visitStmt(n.Post)
			}
			visitStmt(n.Body)
		case *ast.WhileStatement:
			visitExpr(n.Cond)
			visitStmt(n.Body)
		case *ast.DoWhileStatement:
			visitStmt(n.Body)
			visitExpr(n.Cond)
		case *ast.ReturnStatement:
			if n.Value != nil {
				visitExpr(n.Value)
			}
		case *ast.ThrowStatement:
			visitExpr(n.Value)
		}
	}

	visitStmt(body)
	return free
}

// lowerLambda builds the capture record layout
// (`[u32 count, u64 moduletype_id x count, value bytes concatenated]`),
// compiles the lambda body as its own Function with an implicit
// capture_data_ptr first argument, and returns a raw-callback Value at the
// call site.
func (c *Compiler) lowerLambda(n *ast.LambdaExpression) (ir.Value, error) {
	free := freeVariables(n.Params, n.Body)

	sigArgs := make([]types.SigArg, 0, len(n.Params)+1)
	sigArgs = append(sigArgs, types.SigArg{Implicit: types.ImplicitCaptureDataPtr})
	paramTypes := make([]*types.Type, len(n.Params))
	for i, p := range n.Params {
		pt, err := c.resolveType(p.Type)
		if err != nil {
			return ir.InvalidValue(), err
		}
		paramTypes[i] = pt
		sigArgs = append(sigArgs, types.SigArg{Type: pt, ByPointer: p.ByPointer})
	}
	retType, err := c.resolveType(n.RetType)
	if err != nil {
		return ir.InvalidValue(), err
	}

	sigType, err := c.ctx.Registry.InternSignature(&types.Signature{Args: sigArgs, Return: retType})
	if err != nil {
		return ir.InvalidValue(), err
	}

	name := fmt.Sprintf("lambda@%d:%d", n.Position.Line, n.Position.Column)
	fn := c.ctx.Registry.NewFunction(types.Function{
		SimpleName: name,
		FQName:     name,
		Signature:  sigType,
	})

	lambdaScope := symtab.NewEnclosed(c.block.scope)
	captureVals := make(map[string]ir.Value, len(free))
	for _, name := range free {
		sym, ok := c.block.scope.Get(name)
		if !ok {
			continue
		}
		lambdaScope.DefineCapture(name, sym.VarType, name, false)
		if loaded, err := c.lowerExpr(&ast.Identifier{Name: name}); err == nil {
			captureVals[name] = loaded
		}
	}
	lambdaCompiler := newFunctionCompiler(c.ctx, fn, lambdaScope, c)
	lambdaCompiler.captures = captureVals
	for i, p := range n.Params {
		// Argument 0 is the implicit capture_data_ptr; named parameters
		// start at index 1.
		if err := lambdaCompiler.bindParam(lambdaScope, p.Name, paramTypes[i], i+1, n.Position); err != nil {
			return ir.InvalidValue(), err
		}
	}
	if err := lambdaCompiler.compileBlock(n.Body); err != nil {
		return ir.InvalidValue(), err
	}

	dst := c.code.NewReg(sigType)
	c.code.Emit(ir.Assign(dst, ir.ImmBytes([]byte(name), sigType), n.Position))
	return dst, nil
}
