package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantFolding_FoldsAddOfTwoConstants(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")

	a := constInst(b, entry, "a", 2)
	bv := constInst(b, entry, "b", 3)
	sum := addInst(b, entry, "sum", a, bv)
	ret(b, entry, sum)

	fn := b.Function()
	cf := &ConstantFolding{}
	changed := cf.Apply(Build("p", fn))
	require.True(t, changed)

	var folded *ConstantInst
	for _, inst := range entry.Instructions {
		if c, ok := inst.(*ConstantInst); ok && c.Result == sum {
			folded = c
		}
	}
	require.NotNil(t, folded)
	assert.Equal(t, uint64(5), folded.Value)
}

func TestDeadCodeElimination_RemovesUnreachableBlock(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")
	unreachable := b.Block("unreachable")
	_ = unreachable
	ret(b, entry, nil)

	fn := b.Function()
	dce := &DeadCodeElimination{}
	changed := dce.Apply(Build("p", fn))

	require.True(t, changed)
	assert.Len(t, fn.Blocks, 1)
	assert.Equal(t, "entry", fn.Blocks[0].Label)
}

func TestDeadCodeElimination_RemovesUnusedPureInstruction(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")

	a := constInst(b, entry, "a", 1)
	bv := constInst(b, entry, "b", 2)
	_ = addInst(b, entry, "unused_sum", a, bv)
	ret(b, entry, a)

	fn := b.Function()
	dce := &DeadCodeElimination{}
	changed := dce.Apply(Build("p", fn))

	require.True(t, changed)
	for _, inst := range entry.Instructions {
		if bin, ok := inst.(*BinaryInst); ok {
			t.Fatalf("expected the unused add to be removed, found %v", bin)
		}
	}
}

func TestOptimizationPipeline_CommonSubexpressionEliminationPassWiresGCSE(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")
	next := b.Block("next")
	b.Connect(entry, next)

	ptrVal := b.Value("p", ptrI32)
	firstLoad := loadInst(b, entry, "l1", ptrVal)
	// A use of the first load keeps dead code elimination, which runs
	// before CSE in the pipeline, from deleting it.
	callInst(b, entry, "use", firstLoad)
	entry.Terminator = &JumpTerm{ID: b.NextID(), Target: next}
	secondLoad := loadInst(b, next, "l2", ptrVal)
	ret(b, next, secondLoad)

	program := Build("p", b.Function())
	pipeline := NewOptimizationPipeline()
	pipeline.Run(program)

	retTerm := next.Terminator.(*ReturnTerm)
	assert.Equal(t, firstLoad, retTerm.Value)
}
