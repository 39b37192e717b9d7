package ir

// adapter.go rewrites operands in place: this IR has no use-lists, so
// rewriting every occurrence of a value means walking the function and
// patching each instruction's own operand fields, one instruction kind
// at a time.

// replaceOperand patches inst's own operand field(s), swapping any
// occurrence of old for repl. Returns whether it changed anything.
func replaceOperand(inst Instruction, old, repl *Value) bool {
	changed := false
	swap := func(v **Value) {
		if *v == old {
			*v = repl
			changed = true
		}
	}
	switch i := inst.(type) {
	case *BinaryInst:
		swap(&i.Left)
		swap(&i.Right)
	case *CompareInst:
		swap(&i.Left)
		swap(&i.Right)
	case *UnaryInst:
		swap(&i.Operand)
	case *CastInst:
		swap(&i.Operand)
	case *LoadInst:
		swap(&i.Address)
	case *AddrInst:
		swap(&i.Base)
		swap(&i.Index)
	case *SelectInst:
		swap(&i.Cond)
		swap(&i.IfTrue)
		swap(&i.IfFalse)
	case *StoreInst:
		swap(&i.Address)
		swap(&i.Value)
	case *CallInst:
		for idx := range i.Args {
			swap(&i.Args[idx])
		}
	case *JoinInst:
		for idx := range i.Incoming {
			swap(&i.Incoming[idx].Value)
		}
	case *ReturnTerm:
		swap(&i.Value)
	case *BranchTerm:
		swap(&i.Condition)
	}
	return changed
}

// ReplaceAllUsesWith rewrites every operand in fn equal to old into
// repl. Mirrors LLVM's Value::replaceAllUsesWith, adapted to this IR's
// lack of use-lists by walking every instruction once.
func ReplaceAllUsesWith(fn *Function, old, repl *Value) {
	if old == repl {
		return
	}
	for _, block := range fn.Blocks {
		for _, inst := range block.Instructions {
			replaceOperand(inst, old, repl)
		}
		if block.Terminator != nil {
			replaceOperand(block.Terminator, old, repl)
		}
	}
}

// UseEmpty reports whether no instruction or terminator in fn still
// refers to v. Used by the sanitizer to find dead loads/joins.
func UseEmpty(fn *Function, v *Value) bool {
	for _, block := range fn.Blocks {
		for _, inst := range block.Instructions {
			if inst.GetResult() == v {
				continue
			}
			for _, op := range inst.GetOperands() {
				if op == v {
					return false
				}
			}
		}
		if t := block.Terminator; t != nil {
			for _, op := range t.GetOperands() {
				if op == v {
					return false
				}
			}
		}
	}
	return true
}

// RemoveInstruction deletes inst from block's instruction list.
func RemoveInstruction(block *BasicBlock, inst Instruction) {
	for i, cur := range block.Instructions {
		if cur == inst {
			block.Instructions = append(block.Instructions[:i], block.Instructions[i+1:]...)
			return
		}
	}
}
