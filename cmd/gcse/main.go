// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"gcse/internal/ir"
)

func main() {
	verbose := flag.Bool("verbose", false, "print the IR before and after optimization")
	dumpIR := flag.Bool("dump-ir", false, "print the IR and exit without optimizing")
	flag.Parse()

	program := demoProgram()

	if *dumpIR {
		fmt.Print(ir.Print(program))
		return
	}

	if *verbose {
		color.Cyan("before:")
		fmt.Print(ir.Print(program))
	}

	pipeline := ir.NewOptimizationPipeline()
	pipeline.Run(program)

	if *verbose {
		color.Cyan("after:")
	}
	fmt.Print(ir.Print(program))

	color.Green("done")
	os.Exit(0)
}

// demoProgram builds a small function with a redundant load across two
// blocks that merge back together, the simplest case that needs the
// join-synthesizing half of the pass to clean up. Each arm's load is
// passed to a call so dead code elimination, which runs before CSE in
// the pipeline, keeps it.
func demoProgram() *ir.Program {
	i32 := &ir.IntType{Bits: 32}
	ptrI32 := &ir.PointerType{Elem: i32}

	b := ir.NewFunctionBuilder("example", i32)
	fn := b.Function()
	fn.Params = []*ir.Parameter{{Name: "p", Type: ptrI32, Value: b.Value("p", ptrI32)}}
	ptr := fn.Params[0].Value

	entry := b.Block("entry")
	left := b.Block("left")
	right := b.Block("right")
	join := b.Block("join")

	b.Connect(entry, left)
	b.Connect(entry, right)
	b.Connect(left, join)
	b.Connect(right, join)

	cond := b.Value("cond", &ir.BoolType{})
	b.Emit(entry, &ir.ConstantInst{ID: b.NextID(), Result: cond, Value: true})
	entry.Terminator = &ir.BranchTerm{ID: b.NextID(), Condition: cond, TrueBlock: left, FalseBlock: right}

	leftLoad := b.Value("l", i32)
	b.Emit(left, &ir.LoadInst{ID: b.NextID(), Result: leftLoad, Address: ptr})
	b.Emit(left, &ir.CallInst{ID: b.NextID(), Callee: "use", Args: []*ir.Value{leftLoad}})
	left.Terminator = &ir.JumpTerm{ID: b.NextID(), Target: join}

	rightLoad := b.Value("r", i32)
	b.Emit(right, &ir.LoadInst{ID: b.NextID(), Result: rightLoad, Address: ptr})
	b.Emit(right, &ir.CallInst{ID: b.NextID(), Callee: "use", Args: []*ir.Value{rightLoad}})
	right.Terminator = &ir.JumpTerm{ID: b.NextID(), Target: join}

	again := b.Value("again", i32)
	b.Emit(join, &ir.LoadInst{ID: b.NextID(), Result: again, Address: ptr})
	join.Terminator = &ir.ReturnTerm{ID: b.NextID(), Value: again}

	return ir.Build("demo", fn)
}
