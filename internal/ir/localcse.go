package ir

// localcse.go is the single-block pass: walk a block's instructions in
// order, keeping an ordered "Available" list of expressions computed so
// far that have not since been killed; any later instruction computing
// an equal expression is replaced by the earliest available result
// instead of recomputed.

type availableEntry struct {
	expr  Expression
	value *Value
}

// RunLocalCSE eliminates redundant expressions within a single block,
// rewriting uses in fn and dropping the now-dead instructions from
// block. Returns whether it changed anything.
func RunLocalCSE(fn *Function, block *BasicBlock) bool {
	var available []availableEntry
	kept := make([]Instruction, 0, len(block.Instructions))
	changed := false

	for _, inst := range block.Instructions {
		if store, ok := inst.(*StoreInst); ok {
			available = kill(available, store.Address)
			kept = append(kept, inst)
			continue
		}

		if !IsExpression(inst) {
			kept = append(kept, inst)
			continue
		}

		expr, ok := NewExpression(inst)
		if !ok {
			kept = append(kept, inst)
			continue
		}

		if entry := findAvailable(available, expr); entry != nil {
			ReplaceAllUsesWith(fn, inst.GetResult(), entry.value)
			changed = true
			continue
		}

		available = append(available, availableEntry{expr: expr, value: inst.GetResult()})
		kept = append(kept, inst)
	}

	block.Instructions = kept
	return changed
}

func findAvailable(available []availableEntry, expr Expression) *availableEntry {
	for i := range available {
		if available[i].expr.Equal(expr) {
			return &available[i]
		}
	}
	return nil
}

// kill performs the single forward sweep over available that a store to
// addr triggers: starting from Killed = {addr}, any entry whose operand
// is in Killed is dropped and its own result value joins Killed — the
// cascade that propagates a store's effect to everything computed from
// the stale value, however many expressions deep. One forward sweep is
// enough because entries are appended in the order their defining
// instructions ran, so a dependent entry always appears after whatever
// it depends on.
func kill(available []availableEntry, addr *Value) []availableEntry {
	kept := make([]availableEntry, 0, len(available))
	killed := map[*Value]bool{addr: true}

	for _, e := range available {
		dead := false
		for _, op := range e.expr.Operands {
			if killed[op] {
				dead = true
				break
			}
		}
		if dead {
			killed[e.value] = true
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
