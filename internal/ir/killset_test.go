package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateKillSet_StoreKillsOnlyExpressionsRootedAtItsAddress(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")

	ptrVal := b.Value("p", ptrI32)
	otherPtr := b.Value("q", ptrI32)
	load := loadInst(b, entry, "l", ptrVal)
	otherLoad := loadInst(b, entry, "ol", otherPtr)
	newVal := constInst(b, entry, "nv", 9)
	storeInst(b, entry, ptrVal, newVal)
	ret(b, entry, load)

	loadExpr, ok := NewExpression(load.DefInst)
	require.True(t, ok)
	otherExpr, ok := NewExpression(otherLoad.DefInst)
	require.True(t, ok)

	exprs := []Expression{loadExpr, otherExpr}
	exprResults := map[string][]Instruction{
		loadExpr.Key():  {load.DefInst},
		otherExpr.Key(): {otherLoad.DefInst},
	}

	kill := CalculateKillSet(entry, exprs, exprResults)
	assert.True(t, kill.Test(0), "load rooted at the stored-to address must be killed")
	assert.False(t, kill.Test(1), "load rooted at an unrelated address must survive")
}

func TestCalculateKillSet_ClosesTransitivelyOverDependentExpressions(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")

	ptrVal := b.Value("p", ptrI32)
	load := loadInst(b, entry, "l", ptrVal)
	one := constInst(b, entry, "one", 1)
	derived := addInst(b, entry, "derived", load, one)
	newVal := constInst(b, entry, "nv", 9)
	storeInst(b, entry, ptrVal, newVal)
	ret(b, entry, derived)

	loadExpr, ok := NewExpression(load.DefInst)
	require.True(t, ok)
	derivedExpr, ok := NewExpression(derived.DefInst)
	require.True(t, ok)

	exprs := []Expression{loadExpr, derivedExpr}
	exprResults := map[string][]Instruction{
		loadExpr.Key():    {load.DefInst},
		derivedExpr.Key(): {derived.DefInst},
	}

	kill := CalculateKillSet(entry, exprs, exprResults)
	assert.True(t, kill.Test(0), "the load itself is rooted at the stored-to address")
	assert.True(t, kill.Test(1), "an expression computed from the killed load must be killed too")
}

func TestCalculateKillSet_CallIsNeverAKillTrigger(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")

	ptrVal := b.Value("p", ptrI32)
	load := loadInst(b, entry, "l", ptrVal)
	callInst(b, entry, "sideEffect")
	ret(b, entry, load)

	loadExpr, ok := NewExpression(load.DefInst)
	require.True(t, ok)

	exprs := []Expression{loadExpr}
	exprResults := map[string][]Instruction{loadExpr.Key(): {load.DefInst}}

	kill := CalculateKillSet(entry, exprs, exprResults)
	assert.False(t, kill.Test(0), "a call carries no address and must not kill any expression")
}

func TestIsKilledInBB_DetectsStoreBetweenTopAndUse(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")

	ptrVal := b.Value("p", ptrI32)
	load := loadInst(b, entry, "l", ptrVal)
	newVal := constInst(b, entry, "nv", 9)
	storeInst(b, entry, ptrVal, newVal)
	load2 := loadInst(b, entry, "l2", ptrVal)
	ret(b, entry, load2)
	_ = load

	expr, ok := NewExpression(load2.DefInst)
	require.True(t, ok)

	assert.True(t, IsKilledInBB(entry, load2.DefInst, expr))
}

func TestIsKilledInBB_NoStoreMeansNotKilled(t *testing.T) {
	b := NewFunctionBuilder("f", i32)
	entry := b.Block("entry")

	ptrVal := b.Value("p", ptrI32)
	load := loadInst(b, entry, "l", ptrVal)
	ret(b, entry, load)

	expr, ok := NewExpression(load.DefInst)
	require.True(t, ok)

	assert.False(t, IsKilledInBB(entry, load.DefInst, expr))
}
