package vm

import (
	"testing"

	"github.com/tsn-lang/tsn/internal/ffi"
	"github.com/tsn-lang/tsn/internal/ir"
	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/types"
)

func intType() *types.Type {
	return &types.Type{SimpleName: "int32", FQName: "int32", Size: 4, Flags: types.Flags{IsPrimitive: true, IsIntegral: true}}
}

func buildAddFunction(t *testing.T) *ir.CodeHolder {
	t.Helper()
	ty := intType()
	fn := &types.Function{SimpleName: "add", FQName: "add"}
	code := ir.NewCodeHolder(fn)

	a := ir.ArgValue(0, ty)
	b := ir.ArgValue(1, ty)
	dst := code.NewReg(ty)
	code.Emit(ir.BinOp(ir.OpIAdd, dst, a, b, source.Position{}))
	code.Emit(ir.Ret(dst, source.Position{}))
	return code
}

func TestLowerAndRunAdd(t *testing.T) {
	holder := buildAddFunction(t)
	prog, err := Lower([]*ir.CodeHolder{holder})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	vm := NewVM(prog, ffi.NewRegistry(), DefaultConfig())
	vm.Registers().Set(A(0), uint64(int64(2)))
	vm.Registers().Set(A(1), uint64(int64(3)))

	if rtErr := vm.Run(prog.Functions[0].Entry); rtErr != nil {
		t.Fatalf("Run: %v", rtErr)
	}

	got := int64(vm.Registers().Get(RegV0))
	if got != 5 {
		t.Fatalf("expected v0 == 5, got %d", got)
	}
}

func TestEncodeDecodeInstructionRoundTrip(t *testing.T) {
	in := Instruction{Op: OpAdd, Dst: S(1), Src1: S(2), Src2: S(3)}
	words := EncodeInstruction(in)
	got := DecodeInstruction(words)
	if got.Op != in.Op || got.Dst != in.Dst || got.Src1 != in.Src1 || got.Src2 != in.Src2 {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestEncodeDecodeProgramRoundTrip(t *testing.T) {
	prog := &Program{
		Functions: []FunctionEntry{
			{Name: "main", Entry: 0},
			{Name: "print", Entry: -1, HostName: "print"},
		},
		Instructions: []Instruction{
			{Op: OpAdd, Dst: S(0), Src1: S(1), Src2: S(2)},
			{Op: OpJal, Imm: 1, HasImm: true},
			{Op: OpJmpr, Dst: RegRA},
		},
	}

	data := EncodeProgram(prog)
	decoded, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if len(decoded.Functions) != len(prog.Functions) || len(decoded.Instructions) != len(prog.Instructions) {
		t.Fatalf("decoded program shape mismatch: %+v", decoded)
	}
	if decoded.Functions[1].HostName != "print" {
		t.Fatalf("expected host function name to survive round trip")
	}
	if decoded.Instructions[0].Op != OpAdd {
		t.Fatalf("expected first instruction to be add, got %s", decoded.Instructions[0].Op)
	}
}

func TestStackOverflowReported(t *testing.T) {
	prog := &Program{Instructions: []Instruction{
		{Op: OpSt, Dst: S(0), Src1: RegZero, Imm: 1 << 20, HasImm: true},
	}}
	vm := NewVM(prog, ffi.NewRegistry(), DefaultConfig())
	err := vm.Run(0)
	if err == nil || err.Code != ErrStackOverflow {
		t.Fatalf("expected vm_stack_overflow, got %v", err)
	}
}

func TestDivisionByZeroReported(t *testing.T) {
	prog := &Program{Instructions: []Instruction{
		{Op: OpDiv, Dst: S(0), Src1: S(1), Src2: S(2)},
	}}
	vm := NewVM(prog, ffi.NewRegistry(), DefaultConfig())
	vm.Registers().Set(S(1), uint64(int64(10)))
	vm.Registers().Set(S(2), 0)
	err := vm.Run(0)
	if err == nil || err.Code != ErrDivisionByZero {
		t.Fatalf("expected vm_division_by_zero, got %v", err)
	}
}

func TestHostCallMarshalsArgsAndReturn(t *testing.T) {
	registry := ffi.NewRegistry()
	if err := registry.Register(&ffi.Descriptor{
		Name:     "host_add",
		Return:   intType(),
		ArgKinds: []ffi.ArgKind{ffi.ArgValue, ffi.ArgValue},
		Args:     []*types.Type{intType(), intType()},
		Native:   func(a, b int64) int64 { return a + b },
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	prog := &Program{
		Functions:    []FunctionEntry{{Name: "host_add", Entry: -1, HostName: "host_add"}},
		Instructions: []Instruction{{Op: OpJal, Imm: 0, HasImm: true}, {Op: OpJmpr, Dst: RegRA}},
	}
	vm := NewVM(prog, registry, DefaultConfig())
	vm.Registers().Set(A(0), uint64(int64(4)))
	vm.Registers().Set(A(1), uint64(int64(5)))

	if err := vm.Run(0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := int64(vm.Registers().Get(RegV0)); got != 9 {
		t.Fatalf("expected v0 == 9, got %d", got)
	}
}

func TestDisassembleListsFunctionsAndHostBindings(t *testing.T) {
	prog := &Program{
		Functions: []FunctionEntry{
			{Name: "main", Entry: 0},
			{Name: "print", Entry: -1, HostName: "print"},
		},
		Instructions: []Instruction{
			{Op: OpAdd, Dst: S(0), Src1: S(1), Src2: S(2)},
			{Op: OpJmpr, Dst: RegRA},
		},
	}
	out := Disassemble(prog)
	if out == "" {
		t.Fatalf("expected non-empty disassembly")
	}
}
