package optimize

import (
	"github.com/tsn-lang/tsn/internal/diag"
	"github.com/tsn-lang/tsn/internal/ir"
)

// ReduceMemoryAccess eliminates redundant load/store round-trips: it tracks,
// per stack address, the register last stored there and the register last
// loaded from there, rewrites loads that can be satisfied from a register
// instead of memory, and drops stores that would write back a value memory
// already holds.
type ReduceMemoryAccess struct{}

func NewReduceMemoryAccess() *ReduceMemoryAccess { return &ReduceMemoryAccess{} }

func (p *ReduceMemoryAccess) Name() string { return "reduce-memory-access" }

// storeInfo records the most recent store to an address: the source
// register and the instruction index it happened at.
type storeInfo struct {
	at  int
	src ir.Value
}

// loadInfo records the most recent load from an address: the destination
// register it was loaded into and the instruction index it happened at.
type loadInfo struct {
	at   int
	into ir.Value
}

func addrEqual(a, b ir.Value) bool {
	return a.Kind == b.Kind && a.Equal(b)
}

func (p *ReduceMemoryAccess) Run(code *ir.CodeHolder, d *diag.Sink) (bool, bool) {
	changed := false

	var lastStore []storeInfo
	var lastStoreAddr []ir.Value
	var lastLoad []loadInfo
	var lastLoadAddr []ir.Value

	// regWrittenAfter reports whether reg (by value identity) has been
	// reassigned strictly after instruction index at.
	regWrittenAfter := func(reg ir.Value, at int, upTo int) bool {
		for i := at + 1; i < upTo; i++ {
			in := code.Instructions[i]
			if dst, ok := in.Assigned(); ok && dst.Kind == ir.Reg && reg.Kind == ir.Reg && dst.Reg == reg.Reg {
				return true
			}
		}
		return false
	}

	addrWrittenBetween := func(addr ir.Value, from, upTo int) bool {
		for i := from + 1; i < upTo; i++ {
			in := code.Instructions[i]
			if in.Op == ir.OpStore && addrEqual(in.Operands[1], addr) {
				return true
			}
			if in.Op == ir.OpLoad {
				continue
			}
		}
		return false
	}

	for i := 0; i < len(code.Instructions); i++ {
		in := code.Instructions[i]

		switch in.Op {
		case ir.OpStore:
			src, addr := in.Operands[0], in.Operands[1]

			dropped := false

			// Rule 1: the most recent store to addr already wrote src, so
			// this store is a no-op.
			for k := len(lastStoreAddr) - 1; k >= 0; k-- {
				if !addrEqual(lastStoreAddr[k], addr) {
					continue
				}
				st := lastStore[k]
				if addrWrittenBetween(addr, st.at, i) {
					break
				}
				if st.src.Kind == ir.Reg && regWrittenAfter(st.src, st.at, i) {
					break
				}
				if st.src.Equal(src) {
					code.Instructions[i] = ir.Instruction{Op: ir.OpInvalid, Pos: in.Pos}
					changed = true
					dropped = true
				}
				break
			}

			// Rule 2: src was most recently loaded from addr itself, so
			// writing it back changes nothing memory doesn't already hold.
			if !dropped {
				for k := len(lastLoadAddr) - 1; k >= 0; k-- {
					if !addrEqual(lastLoadAddr[k], addr) {
						continue
					}
					ld := lastLoad[k]
					if addrWrittenBetween(addr, ld.at, i) {
						break
					}
					if ld.into.Kind == ir.Reg && ld.into.Equal(src) {
						code.Instructions[i] = ir.Instruction{Op: ir.OpInvalid, Pos: in.Pos}
						changed = true
						dropped = true
					}
					break
				}
			}

			if !dropped {
				lastStoreAddr = append(lastStoreAddr, addr)
				lastStore = append(lastStore, storeInfo{at: i, src: src})
			}

		case ir.OpLoad:
			dst, addr := in.Operands[0], in.Operands[1]

			// Case 1: address was just stored from src and hasn't been
			// overwritten since  rewrite `load dst addr`  `assign dst src`.
			rewrote := false
			for k := len(lastStoreAddr) - 1; k >= 0; k-- {
				if !addrEqual(lastStoreAddr[k], addr) {
					continue
				}
				st := lastStore[k]
				if addrWrittenBetween(addr, st.at, i) {
					break
				}
				if regWrittenAfter(st.src, st.at, i) {
					break
				}
				if dst.Kind == ir.Reg && st.src.Kind == ir.Reg && dst.Reg == st.src.Reg {
					code.Instructions[i] = ir.Instruction{Op: ir.OpInvalid, Pos: in.Pos}
				} else {
					code.Instructions[i] = ir.Assign(dst, st.src, in.Pos)
				}
				changed = true
				rewrote = true
				break
			}
			if rewrote {
				continue
			}

			// Case 2: another register already holds this address's value
			// (a prior load, not yet invalidated by a store to addr).
			for k := len(lastLoadAddr) - 1; k >= 0; k-- {
				if !addrEqual(lastLoadAddr[k], addr) {
					continue
				}
				ld := lastLoad[k]
				if addrWrittenBetween(addr, ld.at, i) {
					break
				}
				if regWrittenAfter(ld.into, ld.at, i) {
					break
				}
				code.Instructions[i] = ir.Assign(dst, ld.into, in.Pos)
				changed = true
				rewrote = true
				break
			}

			lastLoadAddr = append(lastLoadAddr, addr)
			lastLoad = append(lastLoad, loadInfo{at: i, into: dst})

		default:
			// An instruction with side effects (a call, a module write) may
			// mutate stack memory through an aliased pointer; the tracked
			// state can no longer be trusted once one runs.
			if ir.OpInfo(in.Op).HasSideEffects {
				lastStore = nil
				lastStoreAddr = nil
				lastLoad = nil
				lastLoadAddr = nil
			}
		}
	}

	return changed, changed
}
