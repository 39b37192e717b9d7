package ir

// sanitize.go removes the dead loads and synthesized joins a rewrite
// pass leaves behind once every use has been redirected elsewhere. It
// runs after every rewrite pass (see GCSE.RunPass), and only ever
// removes instructions whose result nothing refers to any more.

// Sanitize deletes every LoadInst and JoinInst in fn whose result has no
// remaining uses. Returns whether it removed anything.
func Sanitize(fn *Function) bool {
	changed := false
	for _, block := range fn.Blocks {
		kept := make([]Instruction, 0, len(block.Instructions))
		for _, inst := range block.Instructions {
			if isSanitizable(inst) && UseEmpty(fn, inst.GetResult()) {
				changed = true
				continue
			}
			kept = append(kept, inst)
		}
		block.Instructions = kept
	}
	return changed
}

func isSanitizable(inst Instruction) bool {
	switch inst.(type) {
	case *LoadInst, *JoinInst:
		return true
	default:
		return false
	}
}
