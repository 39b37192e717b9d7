package ir

// This file wires the individual IR transformations into an ordered
// pipeline: an OptimizationPass interface plus an OptimizationPipeline
// runner that applies each pass in turn and logs whether it changed
// anything.

import "github.com/tliron/commonlog"

var pipelineLog = commonlog.GetLogger("optimizations")

// OptimizationPass is a single named transformation over a Program.
type OptimizationPass interface {
	Name() string
	Description() string
	Apply(program *Program) bool
}

// OptimizationPipeline runs an ordered sequence of passes.
type OptimizationPipeline struct {
	passes []OptimizationPass
}

// NewOptimizationPipeline builds the default pipeline: constant folding
// and dead code elimination first to shrink what the GCSE pass has to
// look at, then global common subexpression elimination.
func NewOptimizationPipeline() *OptimizationPipeline {
	p := &OptimizationPipeline{}
	p.AddPass(&ConstantFolding{})
	p.AddPass(&DeadCodeElimination{})
	p.AddPass(&CommonSubexpressionElimination{})
	return p
}

func (p *OptimizationPipeline) AddPass(pass OptimizationPass) {
	p.passes = append(p.passes, pass)
}

// Run executes every pass in order, logging whether each one changed
// anything.
func (p *OptimizationPipeline) Run(program *Program) {
	pipelineLog.Infof("running %d optimization passes", len(p.passes))
	for _, pass := range p.passes {
		changed := pass.Apply(program)
		pipelineLog.Debugf("%s: %s (changed=%v)", pass.Name(), pass.Description(), changed)
	}
}

// ConstantFolding evaluates constant-operand arithmetic at compile time.
type ConstantFolding struct{}

func (cf *ConstantFolding) Name() string { return "Constant Folding" }
func (cf *ConstantFolding) Description() string {
	return "Evaluates constant-operand arithmetic and replaces it with a literal"
}

func (cf *ConstantFolding) Apply(program *Program) bool {
	changed := false
	for _, fn := range program.Functions {
		if cf.foldConstants(fn) {
			changed = true
		}
	}
	return changed
}

func (cf *ConstantFolding) foldConstants(fn *Function) bool {
	changed := false
	constants := make(map[*Value]uint64)

	for _, block := range fn.Blocks {
		for _, inst := range block.Instructions {
			if c, ok := inst.(*ConstantInst); ok {
				if v, ok := c.Value.(uint64); ok {
					constants[c.Result] = v
				}
			}
		}

		kept := make([]Instruction, 0, len(block.Instructions))
		for _, inst := range block.Instructions {
			bin, ok := inst.(*BinaryInst)
			if !ok {
				kept = append(kept, inst)
				continue
			}
			left, lok := constants[bin.Left]
			right, rok := constants[bin.Right]
			if !lok || !rok {
				kept = append(kept, inst)
				continue
			}
			value, ok := evalBinary(bin.Op, left, right)
			if !ok {
				kept = append(kept, inst)
				continue
			}
			folded := &ConstantInst{ID: bin.ID, Result: bin.Result, Block: bin.Block, Value: value}
			constants[bin.Result] = value
			kept = append(kept, folded)
			changed = true
		}
		block.Instructions = kept
	}
	return changed
}

func evalBinary(op BinaryOp, left, right uint64) (uint64, bool) {
	switch op {
	case OpAdd:
		return left + right, true
	case OpSub:
		if left >= right {
			return left - right, true
		}
		return 0, false
	case OpMul:
		return left * right, true
	case OpUDiv:
		if right != 0 {
			return left / right, true
		}
	case OpURem:
		if right != 0 {
			return left % right, true
		}
	case OpAnd:
		return left & right, true
	case OpOr:
		return left | right, true
	case OpXor:
		return left ^ right, true
	case OpShl:
		return left << right, true
	case OpLShr:
		return left >> right, true
	}
	return 0, false
}

// DeadCodeElimination removes unreachable blocks and instructions whose
// results are never used.
type DeadCodeElimination struct{}

func (dce *DeadCodeElimination) Name() string { return "Dead Code Elimination" }
func (dce *DeadCodeElimination) Description() string {
	return "Removes unreachable basic blocks and unused instructions"
}

func (dce *DeadCodeElimination) Apply(program *Program) bool {
	changed := false
	for _, fn := range program.Functions {
		if dce.eliminateDeadBlocks(fn) {
			changed = true
		}
		if dce.eliminateDeadInstructions(fn) {
			changed = true
		}
	}
	return changed
}

func (dce *DeadCodeElimination) eliminateDeadBlocks(fn *Function) bool {
	if fn.Entry == nil {
		return false
	}
	reachable := make(map[*BasicBlock]bool)
	dce.markReachable(fn.Entry, reachable)

	kept := make([]*BasicBlock, 0, len(fn.Blocks))
	changed := false
	for _, block := range fn.Blocks {
		if reachable[block] {
			kept = append(kept, block)
		} else {
			changed = true
		}
	}
	if changed {
		fn.Blocks = kept
		fn.InvalidateDominators()
	}
	return changed
}

func (dce *DeadCodeElimination) markReachable(block *BasicBlock, reachable map[*BasicBlock]bool) {
	if reachable[block] {
		return
	}
	reachable[block] = true
	if block.Terminator == nil {
		return
	}
	for _, succ := range block.Terminator.GetSuccessors() {
		if succ != nil {
			dce.markReachable(succ, reachable)
		}
	}
}

func (dce *DeadCodeElimination) eliminateDeadInstructions(fn *Function) bool {
	used := make(map[*Value]bool)
	for _, block := range fn.Blocks {
		for _, inst := range block.Instructions {
			for _, op := range inst.GetOperands() {
				used[op] = true
			}
		}
		if block.Terminator != nil {
			for _, op := range block.Terminator.GetOperands() {
				used[op] = true
			}
		}
	}

	changed := false
	for _, block := range fn.Blocks {
		kept := make([]Instruction, 0, len(block.Instructions))
		for _, inst := range block.Instructions {
			if dce.hasSideEffects(inst) || used[inst.GetResult()] {
				kept = append(kept, inst)
			} else {
				changed = true
			}
		}
		block.Instructions = kept
	}
	return changed
}

func (dce *DeadCodeElimination) hasSideEffects(inst Instruction) bool {
	switch inst.(type) {
	case *StoreInst, *CallInst:
		return true
	default:
		return false
	}
}

// CommonSubexpressionElimination is the optimization pipeline's name for
// the full global common subexpression elimination pass: local CSE
// within each block, then the dominator-guided cross-block rewrite/
// sanitize fixed point in gcse.go.
type CommonSubexpressionElimination struct{}

func (cse *CommonSubexpressionElimination) Name() string {
	return "cse"
}
func (cse *CommonSubexpressionElimination) Description() string {
	return "Global Common Subexpression Elimination"
}

func (cse *CommonSubexpressionElimination) Apply(program *Program) bool {
	return RunOnProgram(program)
}
