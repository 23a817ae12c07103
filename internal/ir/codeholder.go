package ir

import (
	"fmt"
	"sort"

	"github.com/tsn-lang/tsn/internal/source"
	"github.com/tsn-lang/tsn/internal/types"
)

// freeRun is one contiguous run of free bytes in a StackAllocator's frame.
type freeRun struct {
	offset int
	size   int
}

// StackAllocator is a per-function, coalescing free-list allocator over
// byte offsets, used for every stack-allocated local and temporary.
// Allocation picks the first run big enough (first-fit); freeing merges
// with neighboring runs so a function with many short-lived locals doesn't
// grow its frame without bound.
type StackAllocator struct {
	free      []freeRun
	highWater int
}

// NewStackAllocator returns an empty allocator.
func NewStackAllocator() *StackAllocator {
	return &StackAllocator{}
}

// Alloc reserves size bytes, returning their offset within the frame.
func (a *StackAllocator) Alloc(size int) int {
	if size <= 0 {
		size = 1
	}
	for i, run := range a.free {
		if run.size < size {
			continue
		}
		offset := run.offset
		if run.size == size {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = freeRun{offset: run.offset + size, size: run.size - size}
		}
		return offset
	}
	offset := a.highWater
	a.highWater += size
	return offset
}

// Free returns the size bytes at offset to the free list, coalescing with
// any adjacent run.
func (a *StackAllocator) Free(offset, size int) {
	if size <= 0 {
		size = 1
	}
	a.free = append(a.free, freeRun{offset: offset, size: size})
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].offset < a.free[j].offset })

	merged := a.free[:0]
	for _, run := range a.free {
		if n := len(merged); n > 0 && merged[n-1].offset+merged[n-1].size == run.offset {
			merged[n-1].size += run.size
			continue
		}
		merged = append(merged, run)
	}
	a.free = merged
}

// HighWater returns the largest offset ever handed out plus its size: the
// minimum frame size that accommodates every allocation this allocator has
// made.
func (a *StackAllocator) HighWater() int { return a.highWater }

// SourceMap associates instruction indices with source positions, kept
// separately from Instruction.Pos so optimizer passes that splice or
// reorder instructions can rebuild it cheaply from the surviving slice.
type SourceMap struct {
	positions []source.Position
}

// Record appends pos for the instruction at index idx.
func (m *SourceMap) Record(idx int, pos source.Position) {
	for len(m.positions) <= idx {
		m.positions = append(m.positions, source.Position{})
	}
	m.positions[idx] = pos
}

// At returns the recorded position for idx, or the zero Position.
func (m *SourceMap) At(idx int) source.Position {
	if idx < 0 || idx >= len(m.positions) {
		return source.Position{}
	}
	return m.positions[idx]
}

// CodeHolder is the per-function IR build state: the owning Function, its
// flat ordered instruction list, its stack allocator, and its source-location
// map. It holds no register-allocator state: physical registers are assigned
// by the VM backend while it lowers the holder. The Compiler fills one CodeHolder per
// compiled function; the Optimizer and VM backend both consume it
// read-mostly.
type CodeHolder struct {
	Owner        *types.Function
	Instructions []Instruction
	Stack        *StackAllocator
	Locations    SourceMap

	nextReg   int
	nextLabel int
}

// NewCodeHolder returns an empty CodeHolder for owner.
func NewCodeHolder(owner *types.Function) *CodeHolder {
	return &CodeHolder{
		Owner: owner,
		Stack: NewStackAllocator(),
	}
}

// NewReg allocates a fresh virtual register of type t. The infinite virtual
// register space is only ever consumed by the VM backend's register
// allocator; the IR itself never runs out.
func (c *CodeHolder) NewReg(t *types.Type) Value {
	id := c.nextReg
	c.nextReg++
	return RegValue(id, t)
}

// NewLabel allocates a fresh, unplaced label id.
func (c *CodeHolder) NewLabel() LabelID {
	id := LabelID(c.nextLabel)
	c.nextLabel++
	return id
}

// Emit appends in to the instruction stream and records its source
// position, returning the index it was placed at.
func (c *CodeHolder) Emit(in Instruction) int {
	idx := len(c.Instructions)
	c.Instructions = append(c.Instructions, in)
	c.Locations.Record(idx, in.Pos)
	return idx
}

// Len returns the number of instructions emitted so far.
func (c *CodeHolder) Len() int { return len(c.Instructions) }

// Validate runs Instruction.Validate over every instruction, prefixing
// failures with their index for diagnostics.
func (c *CodeHolder) Validate() error {
	for i, in := range c.Instructions {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("ir: instruction %d: %w", i, err)
		}
	}
	return nil
}

// LabelIndex returns the instruction index of the `label L` op with the
// given id, or -1 if it is unplaced or unknown.
func (c *CodeHolder) LabelIndex(id LabelID) int {
	for i, in := range c.Instructions {
		if in.Op == OpLabel && in.NumLabels > 0 && in.Labels[0] == id {
			return i
		}
	}
	return -1
}
