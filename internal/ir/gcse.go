package ir

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
)

var gcseLog = commonlog.GetLogger("gcse")

// GCSE drives one instance of the optimization over a single function:
// value-number every expression-eligible instruction, run the available
// expressions dataflow analysis, then alternate rewrite/sanitize passes
// until nothing more changes.
type GCSE struct {
	vn          map[string]int
	exprs       []Expression
	exprResults map[string][]Instruction
}

// NewGCSE returns a fresh, empty instance ready for RunAnalysis.
func NewGCSE() *GCSE {
	return &GCSE{
		vn:          make(map[string]int),
		exprs:       nil,
		exprResults: make(map[string][]Instruction),
	}
}

// RunAnalysis (re)computes value numbers and the available-expressions
// dataflow sets for fn from scratch. Must be called before RunPass, and
// again after anything changes the function.
func (g *GCSE) RunAnalysis(fn *Function) *AvailSets {
	g.vn = make(map[string]int)
	g.exprs = nil
	g.exprResults = make(map[string][]Instruction)

	for _, block := range fn.Blocks {
		for _, inst := range block.Instructions {
			if !IsExpression(inst) {
				continue
			}
			expr, ok := NewExpression(inst)
			if !ok {
				continue
			}
			key := expr.Key()
			if _, seen := g.vn[key]; !seen {
				g.vn[key] = len(g.exprs)
				g.exprs = append(g.exprs, expr)
			}
			g.exprResults[key] = append(g.exprResults[key], inst)
		}
	}

	gen := make(map[*BasicBlock]*bitset.BitSet, len(fn.Blocks))
	kill := make(map[*BasicBlock]*bitset.BitSet, len(fn.Blocks))
	for _, block := range fn.Blocks {
		gen[block] = ComputeGen(block, g.vn, g.exprs)
		kill[block] = CalculateKillSet(block, g.exprs, g.exprResults)
	}

	gcseLog.Debugf("gcse: function %q has %d candidate expressions across %d blocks",
		fn.Name, len(g.exprs), len(fn.Blocks))

	return RunAvailableExpressions(fn, len(g.exprs), gen, kill)
}

// RunPass performs one rewrite + sanitize sweep using the most recent
// RunAnalysis results. Returns whether it changed the function — the
// signal the outer fixed point in RunOnFunction watches for.
func (g *GCSE) RunPass(fn *Function, avail *AvailSets) bool {
	rewrote := RunRewritePass(fn, g.vn, g.exprResults, avail)
	sanitized := Sanitize(fn)
	return rewrote || sanitized
}

// RunOnFunction alternates local CSE, RunAnalysis, and RunPass to a
// fixed point: every outer iteration reruns local CSE on every block
// (a prior iteration's rewrite or join synthesis can reintroduce
// block-local redundancy that only a fresh local pass catches), then
// re-analyzes and rewrites, repeating until nothing further changes.
func (g *GCSE) RunOnFunction(fn *Function) bool {
	assertWellFormed(fn)

	changed := false
	maxIterations := countInstructions(fn) + 1

	for iterations := 0; ; iterations++ {
		if iterations > maxIterations {
			panic(errors.Errorf(
				"gcse: function %q failed to converge after %d outer iterations (bound %d)",
				fn.Name, iterations, maxIterations))
		}

		localChanged := false
		for _, block := range fn.Blocks {
			if RunLocalCSE(fn, block) {
				localChanged = true
			}
		}

		avail := g.RunAnalysis(fn)
		passChanged := g.RunPass(fn, avail)

		if !localChanged && !passChanged {
			break
		}
		changed = true
	}

	if changed {
		gcseLog.Infof("gcse: eliminated redundant expressions in function %q", fn.Name)
	}
	return changed
}

// RunOnProgram runs RunOnFunction over every function in program.
// Returns whether any function changed.
func RunOnProgram(program *Program) bool {
	changed := false
	for _, fn := range program.Functions {
		g := NewGCSE()
		if g.RunOnFunction(fn) {
			changed = true
		}
	}
	return changed
}
