package ir

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// dataflow.go is the forward "available expressions" analysis: per-block
// Gen/Kill bitsets, then an iterative meet-over-predecessors fixed point
// with intersection as the meet operator:
// AvailOut[b] = Gen[b] ∪ (AvailIn[b] \ Kill[b]).

// maxAvailIterations bounds the fixed-point loop below. The analysis is
// monotone over a finite lattice so it always converges well inside this
// bound; if it doesn't, that's a bug in the transfer functions, not a
// case to recover from.
const maxAvailIterations = 10000

// ComputeGen returns the set of VN indices available at the end of
// block, ignoring anything flowing in from predecessors: an expression
// computed in block survives into Gen only if no later store in the
// same block invalidates it, following the same address-rooted kill
// cascade as RunLocalCSE (block is assumed already locally deduplicated
// by the time this runs). Calls are never a kill trigger (see
// killset.go).
func ComputeGen(block *BasicBlock, vn map[string]int, exprs []Expression) *bitset.BitSet {
	var available []availableEntry
	for _, inst := range block.Instructions {
		if store, ok := inst.(*StoreInst); ok {
			available = kill(available, store.Address)
			continue
		}
		if !IsExpression(inst) {
			continue
		}
		expr, ok := NewExpression(inst)
		if !ok {
			continue
		}
		available = append(available, availableEntry{expr: expr, value: inst.GetResult()})
	}

	gen := bitset.New(uint(len(exprs)))
	for _, e := range available {
		if idx, ok := vn[e.expr.Key()]; ok {
			gen.Set(uint(idx))
		}
	}
	return gen
}

// AvailSets holds the per-block AvailIn/AvailOut bitsets produced by one
// run of the fixed point below, plus the Kill bitsets it was given (kept
// around so the rewrite pass can re-check a candidate's path, not just
// its block's entry availability).
type AvailSets struct {
	In   map[*BasicBlock]*bitset.BitSet
	Out  map[*BasicBlock]*bitset.BitSet
	Kill map[*BasicBlock]*bitset.BitSet
}

// RunAvailableExpressions computes AvailIn/AvailOut for every block of
// fn by iterating to a fixed point. gen/kill must already hold one
// bitset per block (see ComputeGen and CalculateKillSet). The entry
// block's AvailIn is always empty; every other block's AvailIn and
// AvailOut start "universal" (all expressions available) so the meet
// narrows downward,
// matching the standard available-expressions initialization.
func RunAvailableExpressions(fn *Function, numExprs int, gen, kill map[*BasicBlock]*bitset.BitSet) *AvailSets {
	in := make(map[*BasicBlock]*bitset.BitSet, len(fn.Blocks))
	out := make(map[*BasicBlock]*bitset.BitSet, len(fn.Blocks))

	for _, b := range fn.Blocks {
		if b == fn.Entry {
			in[b] = bitset.New(uint(numExprs))
			out[b] = gen[b].Clone()
		} else {
			in[b] = fullBitSet(numExprs)
			out[b] = fullBitSet(numExprs)
		}
	}

	changed := true
	for iterations := 0; changed; iterations++ {
		if iterations > maxAvailIterations {
			panic(errors.Errorf(
				"gcse: available-expressions analysis for function %q failed to converge after %d iterations over %d blocks",
				fn.Name, iterations, len(fn.Blocks)))
		}
		changed = false
		for _, b := range fn.Blocks {
			if b == fn.Entry {
				continue
			}
			var newIn *bitset.BitSet
			for i, p := range b.Predecessors {
				if i == 0 {
					newIn = out[p].Clone()
					continue
				}
				newIn.InPlaceIntersection(out[p])
			}
			if newIn == nil {
				newIn = bitset.New(uint(numExprs))
			}
			if !newIn.Equal(in[b]) {
				in[b] = newIn
				changed = true
			}

			notKilled := in[b].Difference(kill[b])
			newOut := gen[b].Clone()
			newOut.InPlaceUnion(notKilled)
			if !newOut.Equal(out[b]) {
				out[b] = newOut
				changed = true
			}
		}
	}

	return &AvailSets{In: in, Out: out, Kill: kill}
}

// fullBitSet returns a bitset with every one of the first n bits set.
func fullBitSet(n int) *bitset.BitSet {
	b := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		b.Set(uint(i))
	}
	return b
}
