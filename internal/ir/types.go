package ir

import "fmt"

// Generic SSA IR: functions made of basic blocks of instructions, closed
// over by a handful of terminators. Every value is defined exactly once.

// Program is the whole compilation unit handed to a pass.
type Program struct {
	Name      string
	Functions []*Function
}

// Function is one function in IR form.
type Function struct {
	Name       string
	Params     []*Parameter
	ReturnType Type
	Entry      *BasicBlock
	Blocks     []*BasicBlock

	dom *DominatorTree // computed lazily, invalidated whenever blocks change
}

// Parameter is a function parameter.
type Parameter struct {
	Name  string
	Type  Type
	Value *Value
}

// BasicBlock is a maximal straight-line run of instructions ending in a
// single terminator.
type BasicBlock struct {
	Label        string
	Instructions []Instruction
	Terminator   Terminator
	Predecessors []*BasicBlock
	Successors   []*BasicBlock
}

// Value is an SSA value: defined exactly once, used wherever its pointer
// identity shows up as an instruction operand.
type Value struct {
	ID       int
	Name     string
	Type     Type
	DefBlock *BasicBlock
	DefInst  Instruction
}

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	if v.Name != "" {
		return "%" + v.Name
	}
	return fmt.Sprintf("%%t%d", v.ID)
}

// Use records one occurrence of a Value as an operand.
type Use struct {
	Value *Value
	User  Instruction
	Block *BasicBlock
}

// Instruction is any non-terminator IR operation.
type Instruction interface {
	GetID() int
	GetResult() *Value
	GetOperands() []*Value
	GetBlock() *BasicBlock
	SetBlock(*BasicBlock)
	IsTerminator() bool
	String() string
	GetEffects() []Effect
}

// Terminator ends a basic block and names its successors.
type Terminator interface {
	Instruction
	GetSuccessors() []*BasicBlock
}

// Effect describes how an instruction touches memory, if at all.
type Effect interface {
	EffectKind() string
}

// MemoryEffect says an instruction reads or writes through a pointer.
type MemoryEffect struct {
	Kind    MemoryEffectKind
	Address *Value // nil for effects not rooted in a single address (e.g. calls)
}

func (m *MemoryEffect) EffectKind() string { return "memory" }

type MemoryEffectKind string

const (
	MemoryRead  MemoryEffectKind = "read"
	MemoryWrite MemoryEffectKind = "write"
)

// PureEffect marks an instruction as side-effect free.
type PureEffect struct{}

func (p *PureEffect) EffectKind() string { return "pure" }

// ---------------------------------------------------------------------
// Expression-eligible instructions (the seven kinds is_expression knows)
// ---------------------------------------------------------------------

// BinaryInst is a binary arithmetic/bitwise operation.
type BinaryInst struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Op     BinaryOp
	Left   *Value
	Right  *Value
}

// BinaryOp names an arithmetic-binary opcode.
type BinaryOp string

const (
	OpAdd  BinaryOp = "add"
	OpSub  BinaryOp = "sub"
	OpMul  BinaryOp = "mul"
	OpSDiv BinaryOp = "sdiv"
	OpUDiv BinaryOp = "udiv"
	OpSRem BinaryOp = "srem"
	OpURem BinaryOp = "urem"
	OpAnd  BinaryOp = "and"
	OpOr   BinaryOp = "or"
	OpXor  BinaryOp = "xor"
	OpShl  BinaryOp = "shl"
	OpLShr BinaryOp = "lshr"
	OpAShr BinaryOp = "ashr"
)

// commutativeBinaryOps is the set of arithmetic-binary opcodes for which
// operand order does not change the result.
var commutativeBinaryOps = map[BinaryOp]bool{
	OpAdd: true,
	OpMul: true,
	OpAnd: true,
	OpOr:  true,
	OpXor: true,
}

func (b *BinaryInst) GetID() int              { return b.ID }
func (b *BinaryInst) GetResult() *Value       { return b.Result }
func (b *BinaryInst) GetOperands() []*Value   { return []*Value{b.Left, b.Right} }
func (b *BinaryInst) GetBlock() *BasicBlock   { return b.Block }
func (b *BinaryInst) SetBlock(bb *BasicBlock) { b.Block = bb }
func (b *BinaryInst) IsTerminator() bool      { return false }
func (b *BinaryInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (b *BinaryInst) String() string {
	return fmt.Sprintf("%s = %s %s, %s", b.Result, b.Op, b.Left, b.Right)
}
func (b *BinaryInst) IsCommutative() bool { return commutativeBinaryOps[b.Op] }

// Predicate names a compare opcode, modeled after LLVM's integer compare
// predicates.
type Predicate string

const (
	PredEQ  Predicate = "eq"
	PredNE  Predicate = "ne"
	PredULT Predicate = "ult"
	PredULE Predicate = "ule"
	PredUGT Predicate = "ugt"
	PredUGE Predicate = "uge"
	PredSLT Predicate = "slt"
	PredSLE Predicate = "sle"
	PredSGT Predicate = "sgt"
	PredSGE Predicate = "sge"
)

// swappedPredicate is what a predicate becomes when its two operands are
// exchanged (x < y  <=>  y > x).
var swappedPredicate = map[Predicate]Predicate{
	PredEQ:  PredEQ,
	PredNE:  PredNE,
	PredULT: PredUGT,
	PredUGT: PredULT,
	PredULE: PredUGE,
	PredUGE: PredULE,
	PredSLT: PredSGT,
	PredSGT: PredSLT,
	PredSLE: PredSGE,
	PredSGE: PredSLE,
}

// predicateRank gives the total order used to pick a canonical predicate:
// whichever of {p, swap(p)} ranks lower is kept, swapping operands to match.
var predicateRank = map[Predicate]int{
	PredEQ: 0, PredNE: 1,
	PredULT: 2, PredULE: 3, PredUGT: 4, PredUGE: 5,
	PredSLT: 6, PredSLE: 7, PredSGT: 8, PredSGE: 9,
}

func (p Predicate) Swap() Predicate { return swappedPredicate[p] }

// CompareInst is a two-operand comparison producing a boolean.
type CompareInst struct {
	ID        int
	Result    *Value
	Block     *BasicBlock
	Predicate Predicate
	Left      *Value
	Right     *Value
}

func (c *CompareInst) GetID() int              { return c.ID }
func (c *CompareInst) GetResult() *Value       { return c.Result }
func (c *CompareInst) GetOperands() []*Value   { return []*Value{c.Left, c.Right} }
func (c *CompareInst) GetBlock() *BasicBlock   { return c.Block }
func (c *CompareInst) SetBlock(bb *BasicBlock) { c.Block = bb }
func (c *CompareInst) IsTerminator() bool      { return false }
func (c *CompareInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (c *CompareInst) String() string {
	return fmt.Sprintf("%s = icmp %s %s, %s", c.Result, c.Predicate, c.Left, c.Right)
}

// UnaryOp names an arithmetic-unary opcode.
type UnaryOp string

const (
	OpNeg UnaryOp = "neg"
	OpNot UnaryOp = "not"
)

// UnaryInst is a single-operand arithmetic operation.
type UnaryInst struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Op      UnaryOp
	Operand *Value
}

func (u *UnaryInst) GetID() int              { return u.ID }
func (u *UnaryInst) GetResult() *Value       { return u.Result }
func (u *UnaryInst) GetOperands() []*Value   { return []*Value{u.Operand} }
func (u *UnaryInst) GetBlock() *BasicBlock   { return u.Block }
func (u *UnaryInst) SetBlock(bb *BasicBlock) { u.Block = bb }
func (u *UnaryInst) IsTerminator() bool      { return false }
func (u *UnaryInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (u *UnaryInst) String() string {
	return fmt.Sprintf("%s = %s %s", u.Result, u.Op, u.Operand)
}

// CastInst converts a value from one type to another.
type CastInst struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Operand *Value
	ToType  Type
}

func (c *CastInst) GetID() int              { return c.ID }
func (c *CastInst) GetResult() *Value       { return c.Result }
func (c *CastInst) GetOperands() []*Value   { return []*Value{c.Operand} }
func (c *CastInst) GetBlock() *BasicBlock   { return c.Block }
func (c *CastInst) SetBlock(bb *BasicBlock) { c.Block = bb }
func (c *CastInst) IsTerminator() bool      { return false }
func (c *CastInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (c *CastInst) String() string {
	return fmt.Sprintf("%s = cast %s to %s", c.Result, c.Operand, c.ToType)
}

// LoadInst reads a value through a pointer.
type LoadInst struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Address *Value
}

func (l *LoadInst) GetID() int              { return l.ID }
func (l *LoadInst) GetResult() *Value       { return l.Result }
func (l *LoadInst) GetOperands() []*Value   { return []*Value{l.Address} }
func (l *LoadInst) GetBlock() *BasicBlock   { return l.Block }
func (l *LoadInst) SetBlock(bb *BasicBlock) { l.Block = bb }
func (l *LoadInst) IsTerminator() bool      { return false }
func (l *LoadInst) GetEffects() []Effect {
	return []Effect{&MemoryEffect{Kind: MemoryRead, Address: l.Address}}
}
func (l *LoadInst) String() string {
	return fmt.Sprintf("%s = load %s", l.Result, l.Address)
}

// AddrInst computes a derived pointer from a base and an index
// (GEP-style address computation).
type AddrInst struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Base   *Value
	Index  *Value
}

func (a *AddrInst) GetID() int              { return a.ID }
func (a *AddrInst) GetResult() *Value       { return a.Result }
func (a *AddrInst) GetOperands() []*Value   { return []*Value{a.Base, a.Index} }
func (a *AddrInst) GetBlock() *BasicBlock   { return a.Block }
func (a *AddrInst) SetBlock(bb *BasicBlock) { a.Block = bb }
func (a *AddrInst) IsTerminator() bool      { return false }
func (a *AddrInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (a *AddrInst) String() string {
	return fmt.Sprintf("%s = addr %s[%s]", a.Result, a.Base, a.Index)
}

// SelectInst picks between two values based on a boolean condition.
type SelectInst struct {
	ID      int
	Result  *Value
	Block   *BasicBlock
	Cond    *Value
	IfTrue  *Value
	IfFalse *Value
}

func (s *SelectInst) GetID() int              { return s.ID }
func (s *SelectInst) GetResult() *Value       { return s.Result }
func (s *SelectInst) GetOperands() []*Value   { return []*Value{s.Cond, s.IfTrue, s.IfFalse} }
func (s *SelectInst) GetBlock() *BasicBlock   { return s.Block }
func (s *SelectInst) SetBlock(bb *BasicBlock) { s.Block = bb }
func (s *SelectInst) IsTerminator() bool      { return false }
func (s *SelectInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (s *SelectInst) String() string {
	return fmt.Sprintf("%s = select %s, %s, %s", s.Result, s.Cond, s.IfTrue, s.IfFalse)
}

// ---------------------------------------------------------------------
// Non-expression instructions the pass still has to recognize
// ---------------------------------------------------------------------

// StoreInst writes a value through a pointer. Kills every expression
// transitively rooted in Address.
type StoreInst struct {
	ID      int
	Block   *BasicBlock
	Address *Value
	Value   *Value
}

func (s *StoreInst) GetID() int              { return s.ID }
func (s *StoreInst) GetResult() *Value       { return nil }
func (s *StoreInst) GetOperands() []*Value   { return []*Value{s.Address, s.Value} }
func (s *StoreInst) GetBlock() *BasicBlock   { return s.Block }
func (s *StoreInst) SetBlock(bb *BasicBlock) { s.Block = bb }
func (s *StoreInst) IsTerminator() bool      { return false }
func (s *StoreInst) GetEffects() []Effect {
	return []Effect{&MemoryEffect{Kind: MemoryWrite, Address: s.Address}}
}
func (s *StoreInst) String() string {
	return fmt.Sprintf("store %s, %s", s.Value, s.Address)
}

// CallInst is an opaque function call: never an expression, never
// analyzed for kill effects beyond whatever explicit stores it contains
// (no interprocedural call analysis).
type CallInst struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Callee string
	Args   []*Value
}

func (c *CallInst) GetID() int              { return c.ID }
func (c *CallInst) GetResult() *Value       { return c.Result }
func (c *CallInst) GetOperands() []*Value   { return c.Args }
func (c *CallInst) GetBlock() *BasicBlock   { return c.Block }
func (c *CallInst) SetBlock(bb *BasicBlock) { c.Block = bb }
func (c *CallInst) IsTerminator() bool      { return false }
func (c *CallInst) GetEffects() []Effect    { return []Effect{&MemoryEffect{Kind: MemoryWrite}} }
func (c *CallInst) String() string {
	if c.Result != nil {
		return fmt.Sprintf("%s = call %s(...)", c.Result, c.Callee)
	}
	return fmt.Sprintf("call %s(...)", c.Callee)
}

// AllocInst introduces a new address (stack slot / heap cell). Not an
// expression — every alloc is its own distinct location.
type AllocInst struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Of     Type
}

func (a *AllocInst) GetID() int              { return a.ID }
func (a *AllocInst) GetResult() *Value       { return a.Result }
func (a *AllocInst) GetOperands() []*Value   { return nil }
func (a *AllocInst) GetBlock() *BasicBlock   { return a.Block }
func (a *AllocInst) SetBlock(bb *BasicBlock) { a.Block = bb }
func (a *AllocInst) IsTerminator() bool      { return false }
func (a *AllocInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (a *AllocInst) String() string {
	return fmt.Sprintf("%s = alloc %s", a.Result, a.Of)
}

// ConstantInst materializes a compile-time constant. Not one of the seven
// expression kinds (constants carry no operands to canonicalize), but
// useful as operand fodder when building fixtures by hand.
type ConstantInst struct {
	ID     int
	Result *Value
	Block  *BasicBlock
	Value  interface{}
}

func (c *ConstantInst) GetID() int              { return c.ID }
func (c *ConstantInst) GetResult() *Value       { return c.Result }
func (c *ConstantInst) GetOperands() []*Value   { return nil }
func (c *ConstantInst) GetBlock() *BasicBlock   { return c.Block }
func (c *ConstantInst) SetBlock(bb *BasicBlock) { c.Block = bb }
func (c *ConstantInst) IsTerminator() bool      { return false }
func (c *ConstantInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (c *ConstantInst) String() string {
	return fmt.Sprintf("%s = const %v", c.Result, c.Value)
}

// IncomingEdge is one (predecessor, value) pair feeding a join.
type IncomingEdge struct {
	Block *BasicBlock
	Value *Value
}

// JoinInst is the φ/join instruction: its result equals whichever
// incoming value came from the predecessor control actually arrived from.
// Ordered (not a map) so printing and "append incoming pairs" are
// deterministic.
type JoinInst struct {
	ID       int
	Result   *Value
	Block    *BasicBlock
	Incoming []IncomingEdge
}

// NewJoin creates an empty join instruction of the given result type,
// not yet attached to any block.
func NewJoin(id int, resultType Type) *JoinInst {
	return &JoinInst{ID: id, Result: &Value{ID: id, Type: resultType}}
}

// AddIncoming appends one more (value, block) pair.
func (j *JoinInst) AddIncoming(block *BasicBlock, value *Value) {
	j.Incoming = append(j.Incoming, IncomingEdge{Block: block, Value: value})
}

// ValueFor returns the incoming value for a given predecessor, if any.
func (j *JoinInst) ValueFor(block *BasicBlock) (*Value, bool) {
	for _, e := range j.Incoming {
		if e.Block == block {
			return e.Value, true
		}
	}
	return nil, false
}

func (j *JoinInst) GetID() int        { return j.ID }
func (j *JoinInst) GetResult() *Value { return j.Result }
func (j *JoinInst) GetOperands() []*Value {
	ops := make([]*Value, 0, len(j.Incoming))
	for _, e := range j.Incoming {
		ops = append(ops, e.Value)
	}
	return ops
}
func (j *JoinInst) GetBlock() *BasicBlock   { return j.Block }
func (j *JoinInst) SetBlock(bb *BasicBlock) { j.Block = bb }
func (j *JoinInst) IsTerminator() bool      { return false }
func (j *JoinInst) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (j *JoinInst) String() string {
	s := fmt.Sprintf("%s = join ", j.Result)
	for i, e := range j.Incoming {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("[%s, %s]", e.Value, e.Block.Label)
	}
	return s
}

// ---------------------------------------------------------------------
// Terminators
// ---------------------------------------------------------------------

type ReturnTerm struct {
	ID    int
	Block *BasicBlock
	Value *Value
}

func (r *ReturnTerm) GetID() int        { return r.ID }
func (r *ReturnTerm) GetResult() *Value { return nil }
func (r *ReturnTerm) GetOperands() []*Value {
	if r.Value != nil {
		return []*Value{r.Value}
	}
	return nil
}
func (r *ReturnTerm) GetBlock() *BasicBlock        { return r.Block }
func (r *ReturnTerm) SetBlock(bb *BasicBlock)      { r.Block = bb }
func (r *ReturnTerm) IsTerminator() bool           { return true }
func (r *ReturnTerm) GetEffects() []Effect         { return []Effect{&PureEffect{}} }
func (r *ReturnTerm) GetSuccessors() []*BasicBlock { return nil }
func (r *ReturnTerm) String() string {
	if r.Value != nil {
		return fmt.Sprintf("return %s", r.Value)
	}
	return "return"
}

type BranchTerm struct {
	ID         int
	Block      *BasicBlock
	Condition  *Value
	TrueBlock  *BasicBlock
	FalseBlock *BasicBlock
}

func (b *BranchTerm) GetID() int              { return b.ID }
func (b *BranchTerm) GetResult() *Value       { return nil }
func (b *BranchTerm) GetOperands() []*Value   { return []*Value{b.Condition} }
func (b *BranchTerm) GetBlock() *BasicBlock   { return b.Block }
func (b *BranchTerm) SetBlock(bb *BasicBlock) { b.Block = bb }
func (b *BranchTerm) IsTerminator() bool      { return true }
func (b *BranchTerm) GetEffects() []Effect    { return []Effect{&PureEffect{}} }
func (b *BranchTerm) GetSuccessors() []*BasicBlock {
	return []*BasicBlock{b.TrueBlock, b.FalseBlock}
}
func (b *BranchTerm) String() string {
	return fmt.Sprintf("br %s, %s, %s", b.Condition, b.TrueBlock.Label, b.FalseBlock.Label)
}

type JumpTerm struct {
	ID     int
	Block  *BasicBlock
	Target *BasicBlock
}

func (j *JumpTerm) GetID() int                   { return j.ID }
func (j *JumpTerm) GetResult() *Value            { return nil }
func (j *JumpTerm) GetOperands() []*Value        { return nil }
func (j *JumpTerm) GetBlock() *BasicBlock        { return j.Block }
func (j *JumpTerm) SetBlock(bb *BasicBlock)      { j.Block = bb }
func (j *JumpTerm) IsTerminator() bool           { return true }
func (j *JumpTerm) GetEffects() []Effect         { return []Effect{&PureEffect{}} }
func (j *JumpTerm) GetSuccessors() []*BasicBlock { return []*BasicBlock{j.Target} }
func (j *JumpTerm) String() string                { return fmt.Sprintf("jmp %s", j.Target.Label) }

// ---------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------

type Type interface {
	String() string
}

type IntType struct{ Bits int }
type BoolType struct{}
type FloatType struct{ Bits int }
type PointerType struct{ Elem Type }

func (i *IntType) String() string     { return fmt.Sprintf("i%d", i.Bits) }
func (b *BoolType) String() string    { return "bool" }
func (f *FloatType) String() string   { return fmt.Sprintf("f%d", f.Bits) }
func (p *PointerType) String() string { return fmt.Sprintf("%s*", p.Elem) }
