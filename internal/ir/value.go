// Package ir implements the three-address IR model: virtual registers over
// an infinite register file, stack slots with explicit lifetimes, and the
// fixed-shape instruction set both the optimizer and the VM backend
// operate on.
package ir

import (
	"fmt"

	"github.com/tsn-lang/tsn/internal/types"
)

// Kind tags which of a Value's four shapes is populated.
type Kind int

const (
	Invalid Kind = iota
	Reg
	Imm
	Stack
	Arg
)

// ImmKind tags which field of an Immediate is populated.
type ImmKind int

const (
	ImmInt ImmKind = iota
	ImmUint
	ImmFloat
	ImmDouble
	ImmBytes
)

// Immediate is a compile-time constant: an integer, an unsigned integer, a
// float, a double, or a pointer to bytes for string/object/array literals.
type Immediate struct {
	Bytes []byte
	I     int64
	U     uint64
	F32   float32
	F64   float64
	Kind  ImmKind
}

func (im Immediate) equal(o Immediate) bool {
	if im.Kind != o.Kind {
		return false
	}
	switch im.Kind {
	case ImmInt:
		return im.I == o.I
	case ImmUint:
		return im.U == o.U
	case ImmFloat:
		return im.F32 == o.F32
	case ImmDouble:
		return im.F64 == o.F64
	case ImmBytes:
		return string(im.Bytes) == string(o.Bytes)
	}
	return false
}

// Value is the compiler's universal value handle: exactly one of
// is_reg/is_imm/is_stack/is_arg is set on a valid Value.
type Value struct {
	Type *types.Type

	Imm Immediate

	Kind Kind
	// Reg is the virtual register id when Kind == Reg.
	Reg int
	// StackSlot is the byte offset within the owning function's frame when
	// Kind == Stack.
	StackSlot int
	// ArgIndex is the formal parameter position when Kind == Arg.
	ArgIndex int
}

// RegValue constructs a register-kind Value.
func RegValue(id int, t *types.Type) Value { return Value{Kind: Reg, Reg: id, Type: t} }

// StackValue constructs a stack-slot-kind Value (address-of-stack-allocation).
func StackValue(offset int, t *types.Type) Value { return Value{Kind: Stack, StackSlot: offset, Type: t} }

// ArgValue constructs an argument-index-kind Value.
func ArgValue(index int, t *types.Type) Value { return Value{Kind: Arg, ArgIndex: index, Type: t} }

// ImmInt64 constructs a signed-integer immediate.
func ImmInt64(v int64, t *types.Type) Value {
	return Value{Kind: Imm, Type: t, Imm: Immediate{Kind: ImmInt, I: v}}
}

// ImmUint64 constructs an unsigned-integer immediate.
func ImmUint64(v uint64, t *types.Type) Value {
	return Value{Kind: Imm, Type: t, Imm: Immediate{Kind: ImmUint, U: v}}
}

// ImmFloat32 constructs a 32-bit float immediate.
func ImmFloat32(v float32, t *types.Type) Value {
	return Value{Kind: Imm, Type: t, Imm: Immediate{Kind: ImmFloat, F32: v}}
}

// ImmFloat64 constructs a 64-bit float immediate.
func ImmFloat64(v float64, t *types.Type) Value {
	return Value{Kind: Imm, Type: t, Imm: Immediate{Kind: ImmDouble, F64: v}}
}

// ImmBytes constructs a bytes-pointer immediate, used for string, object,
// and array literals.
func ImmBytes(b []byte, t *types.Type) Value {
	return Value{Kind: Imm, Type: t, Imm: Immediate{Kind: ImmBytes, Bytes: b}}
}

// InvalidValue is the zero Value: no kind bit set.
func InvalidValue() Value { return Value{Kind: Invalid} }

// IsValid reports whether exactly one of the four Value shapes is set.
func (v Value) IsValid() bool { return v.Kind != Invalid }

// Equal reports whether v and o carry the same kind and payload. Two
// Values are copy-equatable by kind+payload; Type is compared by pointer
// identity since Types are interned.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind || v.Type != o.Type {
		return false
	}
	switch v.Kind {
	case Reg:
		return v.Reg == o.Reg
	case Stack:
		return v.StackSlot == o.StackSlot
	case Arg:
		return v.ArgIndex == o.ArgIndex
	case Imm:
		return v.Imm.equal(o.Imm)
	case Invalid:
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case Reg:
		return fmt.Sprintf("r%d", v.Reg)
	case Stack:
		return fmt.Sprintf("stack[%d]", v.StackSlot)
	case Arg:
		return fmt.Sprintf("arg%d", v.ArgIndex)
	case Imm:
		switch v.Imm.Kind {
		case ImmInt:
			return fmt.Sprintf("#%d", v.Imm.I)
		case ImmUint:
			return fmt.Sprintf("#%du", v.Imm.U)
		case ImmFloat:
			return fmt.Sprintf("#%gf", v.Imm.F32)
		case ImmDouble:
			return fmt.Sprintf("#%gd", v.Imm.F64)
		case ImmBytes:
			return fmt.Sprintf("#bytes[%d]", len(v.Imm.Bytes))
		}
	}
	return "<invalid>"
}
