package ir

// effects.go holds two small queries over instructions: StoreAddress
// ("is this instruction a store, and if so to what address", answered by
// a StoreInst type check) and IsPure (answered from the per-instruction
// GetEffects() defined alongside each instruction type in types.go).
// The kill-set calculation and LocalCSE do not call either; they check
// for *StoreInst directly.

// StoreAddress returns the address a StoreInst writes to. Only StoreInst
// carries a MemoryWrite effect rooted in a single address in this IR —
// CallInst's write effect has no address, and is never consulted by
// kill-set or gen computation: a call can be assumed to write somewhere,
// but with no address to root a kill on, killset.go and localcse.go key
// exclusively off StoreInst.
func StoreAddress(inst Instruction) (*Value, bool) {
	store, ok := inst.(*StoreInst)
	if !ok {
		return nil, false
	}
	return store.Address, true
}

// IsPure reports whether every effect of inst is a PureEffect.
func IsPure(inst Instruction) bool {
	for _, e := range inst.GetEffects() {
		if _, ok := e.(*PureEffect); !ok {
			return false
		}
	}
	return true
}
