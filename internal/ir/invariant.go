package ir

import "github.com/pkg/errors"

// invariant.go enforces the preconditions the rest of this package
// assumes and never re-checks: every operand must be non-nil, and every
// block reference (predecessor, successor, terminator target) must
// resolve to a block the function actually owns. Violating either is
// undefined behavior the pass refuses to silently run against — it
// panics immediately, wrapped with github.com/pkg/errors so a recovery
// point further up a pass-manager stack gets a stack trace instead of a
// bare message.

// assertWellFormed panics if fn contains a nil operand or a dangling
// block reference anywhere.
func assertWellFormed(fn *Function) {
	blocks := make(map[*BasicBlock]bool, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blocks[b] = true
	}

	checkOperands := func(b *BasicBlock, inst Instruction) {
		for _, op := range inst.GetOperands() {
			if op == nil {
				panic(errors.Errorf(
					"gcse: function %q: instruction %s in block %q has a nil operand",
					fn.Name, inst, b.Label))
			}
		}
	}

	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			checkOperands(b, inst)
		}
		if b.Terminator != nil {
			checkOperands(b, b.Terminator)
			for _, s := range b.Terminator.GetSuccessors() {
				if !blocks[s] {
					panic(errors.Errorf(
						"gcse: function %q: block %q's terminator references a dangling block",
						fn.Name, b.Label))
				}
			}
		}
		for _, p := range b.Predecessors {
			if !blocks[p] {
				panic(errors.Errorf(
					"gcse: function %q: block %q has a dangling predecessor reference",
					fn.Name, b.Label))
			}
		}
		for _, s := range b.Successors {
			if !blocks[s] {
				panic(errors.Errorf(
					"gcse: function %q: block %q has a dangling successor reference",
					fn.Name, b.Label))
			}
		}
	}
}

// countInstructions returns the total instruction count of fn (including
// terminators), used as a generous, size-proportional bound on the outer
// fixed-point loop's iteration count.
func countInstructions(fn *Function) int {
	n := 0
	for _, b := range fn.Blocks {
		n += len(b.Instructions)
		if b.Terminator != nil {
			n++
		}
	}
	return n
}
