package compiler

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ast"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/symtab"
	"github.com/tsn-lang/tsn/internal/types"
)

// stackObject tracks one stack-allocated value whose type is not trivially
// destructible, so a Block can emit its teardown in reverse declaration
// order on every exit path.
type stackObject struct {
	value ir.Value
	typ   *types.Type
}

// Block is one lexical scope the compiler is lowering: its own symbol
// table, the stack objects declared directly in it, and (for loop bodies)
// the break/continue targets a nested statement should jump to.
type Block struct {
	scope   *symtab.Table
	objects []stackObject
	parent  *Block

	breakLabel    ir.LabelID
	continueLabel ir.LabelID
	isLoop        bool
}

// Compiler lowers one function body (or the top-level module body) to IR.
// A fresh Compiler is created per function (newFunctionCompiler); all of
// them share one Context.
type Compiler struct {
	ctx     *Context
	code    *ir.CodeHolder
	block   *Block
	enclose *Compiler // enclosing function's compiler, for closures

	// captures maps a free variable's enclosing-scope slot to the register
	// holding its loaded value inside the current lambda body, populated
	// by lowerLambda.
	captures map[string]ir.Value
}

func newFunctionCompiler(ctx *Context, fn *types.Function, scope *symtab.Table, enclose *Compiler) *Compiler {
	code := ir.NewCodeHolder(fn)
	ctx.Code[fn] = code
	return &Compiler{
		ctx:     ctx,
		code:    code,
		block:   &Block{scope: scope},
		enclose: enclose,
	}
}

// bindParam copies the formal argument at argIdx into a fresh register and
// defines name in scope as a variable symbol resolving to that register —
// the binding loadVar and every assignment to name reads and writes
// thereafter. Used for both ordinary parameters and the implicit `this`.
func (c *Compiler) bindParam(scope *symtab.Table, name string, t *types.Type, argIdx int, pos source.Position) error {
	reg := c.code.NewReg(t)
	c.code.Emit(ir.Assign(reg, ir.ArgValue(argIdx, t), pos))
	if err := scope.DefineVar(name, t, false); err != nil {
		return err
	}
	sym, _ := scope.Get(name)
	sym.Value = reg
	return nil
}

func (c *Compiler) pushBlock() {
	c.block = &Block{scope: symtab.NewEnclosed(c.block.scope), parent: c.block}
}

func (c *Compiler) pushLoopBlock(breakLabel, continueLabel ir.LabelID) {
	c.block = &Block{
		scope:         symtab.NewEnclosed(c.block.scope),
		parent:        c.block,
		breakLabel:    breakLabel,
		continueLabel: continueLabel,
		isLoop:        true,
	}
}

// popBlock emits teardown for every stack object this block owns, in
// reverse declaration order, then returns to the parent block.
func (c *Compiler) popBlock(pos source.Position) {
	c.teardownBlock(c.block, pos)
	c.block = c.block.parent
}

func (c *Compiler) teardownBlock(b *Block, pos source.Position) {
	for i := len(b.objects) - 1; i >= 0; i-- {
		c.code.Emit(ir.StackFree(b.objects[i].value, pos))
	}
}

// teardownTo emits teardown for every block from the current one up to (but
// not including) stop, without actually popping them — used by return,
// break, and continue, which jump out through possibly many enclosing
// blocks without unwinding the compiler's own block stack.
func (c *Compiler) teardownTo(stop *Block, pos source.Position) {
	for b := c.block; b != nil && b != stop; b = b.parent {
		c.teardownBlock(b, pos)
	}
}

// nearestLoop walks outward from the current block looking for the
// innermost loop, for break/continue lowering.
func (c *Compiler) nearestLoop() (*Block, error) {
	for b := c.block; b != nil; b = b.parent {
		if b.isLoop {
			return b, nil
		}
	}
	return nil, fmt.Errorf("compiler: break/continue outside of a loop")
}

// resolveType resolves a parsed TypeExpression against the registry and
// the current scope's type symbols, instantiating templates as needed.
func (c *Compiler) resolveType(te *ast.TypeExpression) (*types.Type, error) {
	if te == nil {
		return c.ctx.Registry.GetPrimitive(types.Void), nil
	}

	sym, ok := c.block.scope.Get(te.Name)
	if !ok || sym.Kind != symtab.SymType {
		if t, ok := c.ctx.Registry.LookupByName(te.Name); ok {
			sym = &symtab.Symbol{Kind: symtab.SymType, Type_: t}
		} else {
			return nil, fmt.Errorf("compiler: no such type %q", te.Name)
		}
	}

	base := sym.Type_
	if len(te.Args) == 0 {
		return base, nil
	}
	if !base.Flags.IsTemplate {
		return nil, fmt.Errorf("compiler: %q is not a template type", te.Name)
	}

	args := make([]*types.Type, len(te.Args))
	for i, a := range te.Args {
		at, err := c.resolveType(a)
		if err != nil {
			return nil, err
		}
		args[i] = at
	}
	return c.ctx.Registry.InstantiateTemplate(base, args)
}
