package symtab

import (
	"fmt"
	"math"
	"strings"

	"github.com/tsn-lang/tsn/internal/types"
)

// conversionScore ranks how costly it is to pass a value of type from where
// a parameter of type to is expected: 0 for an exact match, 1 for a
// lossless implicit conversion, 2 for a widening or pointer-decay
// conversion, and an impossible-conversion sentinel otherwise.
const scoreExact = 0
const scoreImplicit = 1
const scoreWidening = 2

var scoreImpossible = math.MaxInt32

func conversionScore(from, to *types.Type) int {
	if from == to {
		return scoreExact
	}
	if from == nil || to == nil {
		return scoreImpossible
	}

	fromNumeric := from.Flags.IsIntegral || from.Flags.IsFloatingPoint
	toNumeric := to.Flags.IsIntegral || to.Flags.IsFloatingPoint
	if fromNumeric && toNumeric {
		switch {
		case from.Flags.IsIntegral && to.Flags.IsIntegral && from.Flags.IsUnsigned == to.Flags.IsUnsigned:
			if to.Size >= from.Size {
				return scoreImplicit
			}
			return scoreWidening
		case from.Flags.IsIntegral && to.Flags.IsFloatingPoint:
			return scoreImplicit
		case from.Flags.IsFloatingPoint && to.Flags.IsFloatingPoint:
			if to.Size >= from.Size {
				return scoreImplicit
			}
			return scoreWidening
		default:
			// int<->unsigned, float->int, double->float: all lossy.
			return scoreWidening
		}
	}

	// Derived-to-base pointer decay: to is a direct or transitive base of
	// from.
	if isBaseOf(to, from) {
		return scoreWidening
	}

	// A single-argument constructor accepting exactly `from` makes `to`
	// reachable via construction, scored as an implicit conversion.
	if hasConvertingConstructor(to, from) {
		return scoreImplicit
	}

	return scoreImpossible
}

func isBaseOf(base, derived *types.Type) bool {
	for _, b := range derived.Bases {
		if b.Type == base || isBaseOf(base, b.Type) {
			return true
		}
	}
	return false
}

func hasConvertingConstructor(target, arg *types.Type) bool {
	for _, ctor := range target.MethodOverloads("constructor") {
		if ctor.Signature == nil || ctor.Signature.Signature == nil {
			continue
		}
		args := ctor.Signature.Signature.Args
		// args[0] is the implicit this_ptr.
		if len(args) == 2 && args[1].Type == arg {
			return true
		}
	}
	return false
}

// GetFunc resolves name against sym's overload set by conversion score:
// candidates are ranked by total conversion score across their arguments,
// the lowest total wins, and a tie between two lowest-scoring candidates is
// an ambiguous call. expectedRet may be nil to skip filtering by return
// type; strict, when true, rejects any candidate that needs a non-exact
// conversion on any argument.
func (t *Table) GetFunc(name string, expectedRet *types.Type, argTypes []*types.Type, strict bool) (*types.Function, error) {
	sym, ok := t.Get(name)
	if !ok || sym.Kind != SymFunc {
		return nil, fmt.Errorf("symtab: no function named %q", name)
	}

	type candidate struct {
		fn    *types.Function
		score int
	}
	var candidates []candidate

	for _, fn := range sym.Overloads {
		if fn.Signature == nil || fn.Signature.Signature == nil {
			continue
		}
		sig := fn.Signature.Signature
		if len(sig.Args) != len(argTypes) {
			continue
		}
		if expectedRet != nil && sig.Return != expectedRet {
			continue
		}

		total := 0
		feasible := true
		for i, arg := range argTypes {
			s := conversionScore(arg, sig.Args[i].Type)
			if s == scoreImpossible || (strict && s != scoreExact) {
				feasible = false
				break
			}
			total += s
		}
		if feasible {
			candidates = append(candidates, candidate{fn: fn, score: total})
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("symtab: no overload of %q matches the given arguments", name)
	}

	best := candidates[0]
	ambiguous := false
	for _, c := range candidates[1:] {
		switch {
		case c.score < best.score:
			best = c
			ambiguous = false
		case c.score == best.score:
			ambiguous = true
		}
	}
	if ambiguous {
		return nil, fmt.Errorf("symtab: ambiguous call to %q: multiple overloads score %d", name, best.score)
	}
	return best.fn, nil
}

// FormatCandidates renders an overload set's signatures, for diagnostics.
func FormatCandidates(sym *Symbol) string {
	var b strings.Builder
	for i, fn := range sym.Overloads {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fn.DisplayName)
	}
	return b.String()
}
