package ir

import "fmt"

// ExpressionKind is one of the seven instruction shapes GCSE recognizes
// as a candidate for elimination.
type ExpressionKind int

const (
	ExprArithmeticBinary ExpressionKind = iota
	ExprCompare
	ExprArithmeticUnary
	ExprCast
	ExprLoad
	ExprAddressComputation
	ExprSelect
)

// Expression is the canonicalized, hashable identity of one
// side-effect-free instruction. Two instructions compute "the same"
// expression iff their Expressions are equal, where equality already
// accounts for commutativity and compare-predicate swapping by virtue of
// being canonicalized at construction time — the canonical-construction
// path is the only source of truth, nothing re-derives
// equality from the raw, pre-canonical operand order).
type Expression struct {
	Kind        ExpressionKind
	Opcode      string
	ResultType  Type
	Commutative bool
	Operands    []*Value

	// Defining is the instruction this particular Expression value was
	// built from. Excluded from equality/hashing.
	Defining Instruction
}

// IsExpression reports whether inst is eligible to be treated as a GCSE
// expression at all. Stores, calls, branches, allocations and joins are
// never eligible, though stores participate in Kill and joins
// participate as operands.
func IsExpression(inst Instruction) bool {
	switch inst.(type) {
	case *BinaryInst, *CompareInst, *UnaryInst, *CastInst, *LoadInst, *AddrInst, *SelectInst:
		return true
	default:
		return false
	}
}

// NewExpression builds the canonical Expression for inst. Returns
// ok=false if inst is not expression-eligible.
func NewExpression(inst Instruction) (Expression, bool) {
	switch i := inst.(type) {
	case *BinaryInst:
		ops := []*Value{i.Left, i.Right}
		commutative := i.IsCommutative()
		if commutative && valueOrder(ops[0], ops[1]) > 0 {
			ops[0], ops[1] = ops[1], ops[0]
		}
		return Expression{
			Kind: ExprArithmeticBinary, Opcode: string(i.Op), ResultType: i.Result.Type,
			Commutative: commutative, Operands: ops, Defining: inst,
		}, true

	case *CompareInst:
		pred := i.Predicate
		ops := []*Value{i.Left, i.Right}
		if swapped := pred.Swap(); predicateRank[swapped] < predicateRank[pred] {
			pred = swapped
			ops[0], ops[1] = ops[1], ops[0]
		}
		return Expression{
			Kind: ExprCompare, Opcode: string(pred), ResultType: i.Result.Type,
			Operands: ops, Defining: inst,
		}, true

	case *UnaryInst:
		return Expression{
			Kind: ExprArithmeticUnary, Opcode: string(i.Op), ResultType: i.Result.Type,
			Operands: []*Value{i.Operand}, Defining: inst,
		}, true

	case *CastInst:
		return Expression{
			Kind: ExprCast, Opcode: "cast:" + i.ToType.String(), ResultType: i.Result.Type,
			Operands: []*Value{i.Operand}, Defining: inst,
		}, true

	case *LoadInst:
		return Expression{
			Kind: ExprLoad, Opcode: "load", ResultType: i.Result.Type,
			Operands: []*Value{i.Address}, Defining: inst,
		}, true

	case *AddrInst:
		return Expression{
			Kind: ExprAddressComputation, Opcode: "addr", ResultType: i.Result.Type,
			Operands: []*Value{i.Base, i.Index}, Defining: inst,
		}, true

	case *SelectInst:
		return Expression{
			Kind: ExprSelect, Opcode: "select", ResultType: i.Result.Type,
			Operands: []*Value{i.Cond, i.IfTrue, i.IfFalse}, Defining: inst,
		}, true

	default:
		return Expression{}, false
	}
}

// valueOrder gives value handles the deterministic total order
// commutative canonicalization needs ("sorted by value handle identity",
// using each Value's assignment-order ID as the identity.
func valueOrder(a, b *Value) int {
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

// Equal implements the equality law: same kind, same
// result type, same opcode, operand lists element-wise identical by
// value-handle identity. Defining is excluded.
func (e Expression) Equal(o Expression) bool {
	if e.Kind != o.Kind || e.ResultType != o.ResultType || e.Opcode != o.Opcode {
		return false
	}
	if len(e.Operands) != len(o.Operands) {
		return false
	}
	for i := range e.Operands {
		if e.Operands[i] != o.Operands[i] {
			return false
		}
	}
	return true
}

// Key returns a string identifying the canonical Expression, suitable as
// a Go map key for the VN table and ExprResults — an idiomatic stand-in
// for a combining hash over (opcode, result_type, operands...), since
// operand identity here is already a pointer and Go map keys must be
// comparable. Operands are keyed by pointer identity but the result type
// by its String() form, so two distinct type handles that print the same
// share a Key even though Equal treats them as different.
func (e Expression) Key() string {
	s := fmt.Sprintf("%d|%s|%s", e.Kind, e.Opcode, e.ResultType)
	for _, op := range e.Operands {
		s += fmt.Sprintf("|%p", op)
	}
	return s
}

// SwapOperands replaces the expression's operands, re-canonicalizing the
// commutative two-operand case. Nothing in this package calls it:
// findCompositeJoin combines the predecessors' values for the unchanged
// expression and never substitutes a join operand's incoming value.
func (e Expression) SwapOperands(newOps []*Value) Expression {
	e.Operands = append([]*Value(nil), newOps...)
	if e.Commutative && len(e.Operands) == 2 && valueOrder(e.Operands[0], e.Operands[1]) > 0 {
		e.Operands[0], e.Operands[1] = e.Operands[1], e.Operands[0]
	}
	return e
}
