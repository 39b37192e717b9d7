package ir

import "github.com/bits-and-blooms/bitset"

// rewrite.go is the global, cross-block half of the pass: for every
// expression the dataflow analysis in dataflow.go proved available at a
// block's entry, find (or synthesize) a single dominating Value to
// replace it with, then delete the now-redundant instruction.
//
// Block-entry availability alone isn't sufficient evidence: a candidate
// definition that dominates the use site can still be killed along one
// particular path to it (isKilledOnPath), and the use site's own block
// can kill the expression between its own top and the instruction being
// replaced (IsKilledInBB, in killset.go) even though AvailIn said the
// expression was available coming in.

// RunRewritePass walks every block of fn and replaces any
// expression-eligible instruction whose value is already available at
// its block's entry with the dominating (or synthesized) Value that
// computed it. Returns whether it changed anything, the signal that
// drives the outer fixed point.
func RunRewritePass(fn *Function, vn map[string]int, exprResults map[string][]Instruction, avail *AvailSets) bool {
	dom := fn.Dominators()
	changed := false
	nextID := maxInstructionID(fn)

	for _, block := range fn.Blocks {
		in := avail.In[block]
		for _, inst := range append([]Instruction(nil), block.Instructions...) {
			if !IsExpression(inst) {
				continue
			}
			expr, ok := NewExpression(inst)
			if !ok {
				continue
			}
			key := expr.Key()
			idx, ok := vn[key]
			if !ok || !in.Test(uint(idx)) {
				continue
			}
			if IsKilledInBB(block, inst, expr) {
				continue
			}

			visited := make(map[*BasicBlock]bool)
			repl, ok := findReplacementValue(dom, block, expr, idx, exprResults, avail.Kill, &nextID, visited, inst)
			if !ok || repl == inst.GetResult() {
				continue
			}

			ReplaceAllUsesWith(fn, inst.GetResult(), repl)
			RemoveInstruction(block, inst)
			removeExprResult(exprResults, key, inst)
			changed = true
		}
	}
	return changed
}

// findReplacementValue returns a single Value computing expr (value
// number vnIdx) that is available by the time control reaches block,
// recursing into predecessors and synthesizing a join (findCompositeJoin)
// when no one instruction dominates every path.
func findReplacementValue(
	dom *DominatorTree,
	block *BasicBlock,
	expr Expression,
	vnIdx int,
	exprResults map[string][]Instruction,
	kill map[*BasicBlock]*bitset.BitSet,
	nextID *int,
	visited map[*BasicBlock]bool,
	exclude Instruction,
) (*Value, bool) {
	if visited[block] {
		return nil, false
	}
	visited[block] = true

	key := expr.Key()
	var best Instruction
	for _, d := range exprResults[key] {
		if d == exclude {
			continue
		}
		db := d.GetBlock()
		if db == nil || !dom.Dominates(db, block) {
			continue
		}
		if db != block && isKilledOnPath(vnIdx, db, block, kill) {
			continue
		}
		if best == nil || dom.Dominates(best.GetBlock(), db) {
			best = d
		}
	}
	if best != nil {
		return best.GetResult(), true
	}

	if len(block.Predecessors) < 2 {
		return nil, false
	}
	return findCompositeJoin(dom, block, expr, vnIdx, exprResults, kill, nextID, visited, exclude)
}

// isKilledOnPath reports whether the expression numbered vnIdx is killed
// on at least one simple path from src (exclusive) to dest (exclusive):
// a depth-first walk over successors starting at src, pruned to blocks
// that can actually still reach dest, checking every intermediate
// block's Kill bitset. dest's own kill bit is deliberately not inspected
// here — the hazard between dest's top and the actual use site is
// IsKilledInBB's job, not this one's.
//
// The walk is pruned to canReachDest so a sibling branch that can never
// rejoin dest (an unrelated arm of some other merge) never contributes a
// false kill: only blocks actually lying on some src-to-dest path matter.
func isKilledOnPath(vnIdx int, src, dest *BasicBlock, kill map[*BasicBlock]*bitset.BitSet) bool {
	reach := canReachDest(dest)

	visited := map[*BasicBlock]bool{src: true}
	var walk func(b *BasicBlock) bool
	walk = func(b *BasicBlock) bool {
		for _, s := range b.Successors {
			if s == dest || visited[s] || !reach[s] {
				continue
			}
			visited[s] = true
			if k, ok := kill[s]; ok && k.Test(uint(vnIdx)) {
				return true
			}
			if walk(s) {
				return true
			}
		}
		return false
	}
	return walk(src)
}

// canReachDest returns dest plus every block that can reach it by
// forward traversal, computed by walking Predecessors backward from
// dest — a block can reach dest forward exactly when dest can reach it
// backward.
func canReachDest(dest *BasicBlock) map[*BasicBlock]bool {
	reach := map[*BasicBlock]bool{dest: true}
	queue := []*BasicBlock{dest}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, p := range b.Predecessors {
			if !reach[p] {
				reach[p] = true
				queue = append(queue, p)
			}
		}
	}
	return reach
}

// findCompositeJoin handles the case where expr is available at a merge
// point but no single instruction dominates it: each predecessor
// independently supplies a value (possibly itself a freshly synthesized
// join), and a new join instruction is spliced in at block's entry to
// combine them into one Value callers can substitute.
func findCompositeJoin(
	dom *DominatorTree,
	block *BasicBlock,
	expr Expression,
	vnIdx int,
	exprResults map[string][]Instruction,
	kill map[*BasicBlock]*bitset.BitSet,
	nextID *int,
	visited map[*BasicBlock]bool,
	exclude Instruction,
) (*Value, bool) {
	incoming := make([]IncomingEdge, 0, len(block.Predecessors))
	for _, pred := range block.Predecessors {
		v, ok := findReplacementValue(dom, pred, expr, vnIdx, exprResults, kill, nextID, visited, exclude)
		if !ok {
			return nil, false
		}
		incoming = append(incoming, IncomingEdge{Block: pred, Value: v})
	}

	*nextID++
	join := NewJoin(*nextID, expr.ResultType)
	join.Incoming = incoming
	join.SetBlock(block)
	join.Result.DefBlock = block
	join.Result.DefInst = join
	block.Instructions = append([]Instruction{join}, block.Instructions...)

	exprResults[expr.Key()] = append(exprResults[expr.Key()], join)
	return join.Result, true
}

// removeExprResult withdraws inst from exprResults[key], keeping the
// table from handing out a dangling reference to an instruction a
// caller already deleted earlier in the same rewrite walk.
func removeExprResult(exprResults map[string][]Instruction, key string, inst Instruction) {
	list := exprResults[key]
	kept := make([]Instruction, 0, len(list))
	for _, d := range list {
		if d != inst {
			kept = append(kept, d)
		}
	}
	exprResults[key] = kept
}

func maxInstructionID(fn *Function) int {
	max := 0
	for _, block := range fn.Blocks {
		for _, inst := range block.Instructions {
			if id := inst.GetID(); id > max {
				max = id
			}
		}
		if block.Terminator != nil {
			if id := block.Terminator.GetID(); id > max {
				max = id
			}
		}
	}
	return max
}
