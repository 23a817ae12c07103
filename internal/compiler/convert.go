package compiler

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/types"
)

// arithResultType picks the common type two arithmetic operands convert to
// before the operation: floating point dominates integral, and within a
// kind the wider type wins.
func (c *Compiler) arithResultType(a, b *types.Type) (*types.Type, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("compiler: arithmetic on an untyped operand")
	}
	if a == b {
		return a, nil
	}
	if a.Flags.IsFloatingPoint || b.Flags.IsFloatingPoint {
		if a.Flags.IsFloatingPoint && b.Flags.IsFloatingPoint {
			if a.Size >= b.Size {
				return a, nil
			}
			return b, nil
		}
		if a.Flags.IsFloatingPoint {
			return a, nil
		}
		return b, nil
	}
	if a.Size >= b.Size {
		return a, nil
	}
	return b, nil
}

// convert lowers v to target, choosing identity, a numeric cvt instruction,
// or a single-argument constructor call, in that order: identity when the
// types already match, cvt between numeric types, a constructor call when
// target has a single-argument constructor accepting v's type, and a
// compile error otherwise.
func (c *Compiler) convert(v ir.Value, target *types.Type, pos source.Position) (ir.Value, error) {
	if v.Type == target {
		return v, nil
	}
	if target == nil {
		return v, nil
	}

	fromNumeric := v.Type != nil && (v.Type.Flags.IsIntegral || v.Type.Flags.IsFloatingPoint)
	toNumeric := target.Flags.IsIntegral || target.Flags.IsFloatingPoint
	if fromNumeric && toNumeric {
		dst := c.code.NewReg(target)
		c.code.Emit(ir.Convert(dst, v, pos))
		return dst, nil
	}

	if target.Flags.IsIntegral || target.Flags.IsFloatingPoint {
		return ir.InvalidValue(), fmt.Errorf("compiler: no valid conversion from %s to %s", typeName(v.Type), target.FQName)
	}

	for _, ctor := range target.MethodOverloads("constructor") {
		if ctor.Signature == nil || ctor.Signature.Signature == nil {
			continue
		}
		args := ctor.Signature.Signature.Args
		// args[0] is the implicit this_ptr.
		if len(args) == 2 && args[1].Type == v.Type {
			size := ir.ImmInt64(int64(target.Size), nil)
			dst := c.code.NewReg(target)
			c.code.Emit(ir.StackAlloc(dst, size, pos))
			c.code.Emit(ir.Param(v, ctor, pos))
			c.code.Emit(ir.Call(ir.InvalidValue(), ctor, pos))
			return dst, nil
		}
	}

	return ir.InvalidValue(), fmt.Errorf("compiler: no valid conversion from %s to %s", typeName(v.Type), target.FQName)
}

func typeName(t *types.Type) string {
	if t == nil {
		return "<untyped>"
	}
	return t.FQName
}
