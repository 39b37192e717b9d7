package ir

// DominatorTree is the standard iterative dominator computation: a
// worklist over reverse postorder, run to a fixed point.
type DominatorTree struct {
	idom map[*BasicBlock]*BasicBlock
	rpo  []*BasicBlock
}

// Dominators returns (computing and caching on first use) fn's
// dominator tree.
func (fn *Function) Dominators() *DominatorTree {
	if fn.dom != nil {
		return fn.dom
	}
	fn.dom = computeDominators(fn)
	return fn.dom
}

// InvalidateDominators drops the cached tree; call after any pass
// mutates the CFG shape.
func (fn *Function) InvalidateDominators() { fn.dom = nil }

func computeDominators(fn *Function) *DominatorTree {
	rpo := reversePostorder(fn.Entry)
	idom := map[*BasicBlock]*BasicBlock{fn.Entry: fn.Entry}

	index := make(map[*BasicBlock]int, len(rpo))
	for i, b := range rpo {
		index[b] = i
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == fn.Entry {
				continue
			}
			var newIdom *BasicBlock
			for _, p := range b.Predecessors {
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, index)
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return &DominatorTree{idom: idom, rpo: rpo}
}

func intersect(a, b *BasicBlock, idom map[*BasicBlock]*BasicBlock, index map[*BasicBlock]int) *BasicBlock {
	for a != b {
		for index[a] > index[b] {
			a = idom[a]
		}
		for index[b] > index[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(entry *BasicBlock) []*BasicBlock {
	visited := make(map[*BasicBlock]bool)
	var post []*BasicBlock
	var visit func(*BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Successors {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)
	rpo := make([]*BasicBlock, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return rpo
}

// IDom returns b's immediate dominator, or nil for the entry block.
func (d *DominatorTree) IDom(b *BasicBlock) *BasicBlock {
	idom := d.idom[b]
	if idom == b {
		return nil
	}
	return idom
}

// Dominates reports whether a dominates b (reflexively: a always
// dominates itself).
func (d *DominatorTree) Dominates(a, b *BasicBlock) bool {
	for cur := b; cur != nil; {
		if cur == a {
			return true
		}
		next := d.idom[cur]
		if next == cur {
			return cur == a
		}
		cur = next
	}
	return false
}

// StrictlyDominates reports whether a dominates b and a != b.
func (d *DominatorTree) StrictlyDominates(a, b *BasicBlock) bool {
	return a != b && d.Dominates(a, b)
}
