package ir

import "github.com/bits-and-blooms/bitset"

// killset.go computes which value-numbered expressions a store can
// invalidate. This pass carries no alias analysis: a store kills every
// expression rooted in its destination address, then transitively
// closes over anything computed from a killed expression's result.
// Calls carry no address in this IR and are never a kill trigger here
// (see effects.go).

// CalculateKillSet returns the set of VN indices a store anywhere in
// block invalidates, against the global expression table exprs (index i
// holds the representative Expression assigned VN number i) and
// exprResults (each VN's current defining instructions, keyed by
// Expression.Key()). Starting from the addresses written by every store
// in block, it closes over expressions to a fixed point: once an
// expression is killed, its own defining values join the kill-root set,
// so anything computed from them is killed too.
func CalculateKillSet(block *BasicBlock, exprs []Expression, exprResults map[string][]Instruction) *bitset.BitSet {
	kill := bitset.New(uint(len(exprs)))

	kv := make(map[*Value]bool)
	for _, inst := range block.Instructions {
		if store, ok := inst.(*StoreInst); ok {
			kv[store.Address] = true
		}
	}
	if len(kv) == 0 {
		return kill
	}

	for changed := true; changed; {
		changed = false
		for i, e := range exprs {
			if kill.Test(uint(i)) {
				continue
			}
			rooted := false
			for _, op := range e.Operands {
				if kv[op] {
					rooted = true
					break
				}
			}
			if !rooted {
				continue
			}
			kill.Set(uint(i))
			changed = true
			for _, def := range exprResults[e.Key()] {
				if v := def.GetResult(); v != nil {
					kv[v] = true
				}
			}
		}
	}
	return kill
}

// IsKilledInBB reports whether expr's operand chain is invalidated
// somewhere in block strictly before the instruction upTo is reached
// (upTo == nil scans the whole block) — the within-block hazard that
// CalculateKillSet's whole-block view cannot distinguish, since a store
// partway through a block only poisons instructions that follow it.
//
// Scans backward from upTo toward the top of block, tracking a Live set
// seeded with expr's own operands: whenever an earlier instruction's
// result is already in Live, that instruction's own operands join Live
// too (extending the liveness front backward); if an earlier store's
// destination is in Live, expr is killed.
func IsKilledInBB(block *BasicBlock, upTo Instruction, expr Expression) bool {
	live := make(map[*Value]bool, len(expr.Operands))
	for _, op := range expr.Operands {
		live[op] = true
	}

	idx := len(block.Instructions)
	if upTo != nil {
		for i, inst := range block.Instructions {
			if inst == upTo {
				idx = i
				break
			}
		}
	}

	for i := idx - 1; i >= 0; i-- {
		inst := block.Instructions[i]
		if result := inst.GetResult(); result != nil && live[result] {
			for _, op := range inst.GetOperands() {
				live[op] = true
			}
		}
		if store, ok := inst.(*StoreInst); ok && live[store.Address] {
			return true
		}
	}
	return false
}
