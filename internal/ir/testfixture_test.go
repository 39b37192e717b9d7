package ir

// testfixture_test.go holds small helpers shared across this package's
// tests for hand-building functions directly, without going through a
// parser.

var i32 = &IntType{Bits: 32}
var boolT = &BoolType{}
var ptrI32 = &PointerType{Elem: i32}

func constInst(b *FunctionBuilder, block *BasicBlock, name string, value uint64) *Value {
	v := b.Value(name, i32)
	b.Emit(block, &ConstantInst{ID: b.NextID(), Result: v, Value: value})
	return v
}

func addInst(b *FunctionBuilder, block *BasicBlock, name string, left, right *Value) *Value {
	v := b.Value(name, i32)
	b.Emit(block, &BinaryInst{ID: b.NextID(), Result: v, Op: OpAdd, Left: left, Right: right})
	return v
}

func loadInst(b *FunctionBuilder, block *BasicBlock, name string, addr *Value) *Value {
	v := b.Value(name, i32)
	b.Emit(block, &LoadInst{ID: b.NextID(), Result: v, Address: addr})
	return v
}

func storeInst(b *FunctionBuilder, block *BasicBlock, addr, value *Value) {
	b.Emit(block, &StoreInst{ID: b.NextID(), Address: addr, Value: value})
}

func ret(b *FunctionBuilder, block *BasicBlock, value *Value) {
	block.Terminator = &ReturnTerm{ID: b.NextID(), Value: value}
}

func callInst(b *FunctionBuilder, block *BasicBlock, callee string, args ...*Value) {
	b.Emit(block, &CallInst{ID: b.NextID(), Callee: callee, Args: args})
}
