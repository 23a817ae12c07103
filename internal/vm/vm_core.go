package vm

import (
	"math"

	"github.com/tsn-lang/tsn/internal/ffi"
)

// DefaultStackPadding is the default bounds-check band past
// stack_base + stack_size.
const DefaultStackPadding = 8

// FunctionEntry maps one compiled function to either a bytecode entry point
// or a host (FFI) binding.
type FunctionEntry struct {
	Name     string
	Entry    int    // instruction index; -1 if HostName is set
	HostName string // non-empty for a host-bound function
}

// Program is a linked, lowered unit: a flat instruction stream plus a
// function table the jal/jalr opcodes index into.
type Program struct {
	Instructions []Instruction
	Functions    []FunctionEntry
}

// Config holds the interpreter's tunables, matching the config.json schema's
// stackSize and stackPadding fields.
type Config struct {
	StackSize    int
	StackPadding int
}

// DefaultConfig returns this module's defaults.
func DefaultConfig() Config {
	return Config{StackSize: 64 * 1024, StackPadding: DefaultStackPadding}
}

// VM is one single-threaded interpreter instance over a Program: the VM
// interpreter runs on one thread per Context.
type VM struct {
	Program *Program
	FFI     *ffi.Registry

	regs  RegisterFile
	stack []byte
	cfg   Config

	callStack []frame
}

type frame struct {
	returnIP int
	savedSP  uint64
	savedRA  uint64
}

// NewVM returns a VM ready to execute prog.
func NewVM(prog *Program, registry *ffi.Registry, cfg Config) *VM {
	v := &VM{Program: prog, FFI: registry, cfg: cfg}
	v.stack = make([]byte, cfg.StackSize+cfg.StackPadding)
	v.regs.Set(RegSP, uint64(cfg.StackSize))
	return v
}

// Registers exposes the physical register file, primarily for tests and
// the disassembler's symbolic dump.
func (v *VM) Registers() *RegisterFile { return &v.regs }

func (v *VM) checkBounds(addr uint64, size int, ip int) *RuntimeError {
	if int(addr)+size > v.cfg.StackSize+v.cfg.StackPadding || int(addr) < 0 {
		return &RuntimeError{Code: ErrStackOverflow, IP: ip, Msg: "stack access out of bounds"}
	}
	return nil
}

func (v *VM) loadU64(addr uint64, ip int) (uint64, *RuntimeError) {
	if err := v.checkBounds(addr, 8, ip); err != nil {
		return 0, err
	}
	return readUint64(v.stack[addr : addr+8]), nil
}

func (v *VM) storeU64(addr uint64, val uint64, ip int) *RuntimeError {
	if err := v.checkBounds(addr, 8, ip); err != nil {
		return err
	}
	writeUint64(v.stack[addr:addr+8], val)
	return nil
}

func f64(bits uint64) float64 { return math.Float64frombits(bits) }
func bitsOf(f float64) uint64 { return math.Float64bits(f) }
