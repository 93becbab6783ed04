package analogy

// bytecode.go defines the small instruction set the planner compiles a
// pattern's assignment order into. Five opcodes are enough: mark the
// start, bind one variable to a candidate, check one edge
// against the already-bound variables, emit a complete match, and halt.
//
// © 2025 gnosis authors. MIT License.

import "github.com/Voskan/gnosis/internal/codec"

// Opcode identifies one instruction in a Program.
type Opcode uint8

const (
	// OpStop halts the interpreter; it is always the last instruction.
	OpStop Opcode = iota
	// OpInit marks the start of a Program; the interpreter steps over it
	// (Run allocates the assignment array). Always the first instruction.
	OpInit
	// OpNode iterates Var's candidate set, binding each in turn before
	// continuing to the next instruction. The first OpNode in a Program is
	// the stride-partitioned outer loop.
	OpNode
	// OpEdge verifies that From's bound candidate is adjacent to Into's,
	// using the live graph rather than trusting candidate-set membership
	// alone (an earlier NODE's candidate set was computed against the
	// pattern's full signature, which may have changed since).
	OpEdge
	// OpCall emits the current assignment to the caller's callback.
	OpCall
)

// Instr is one bytecode instruction. Fields are interpreted according to
// Op; unused fields are zero.
type Instr struct {
	Op   Opcode
	Var  int // OpNode: pattern variable index to bind
	From int // OpEdge: pattern variable index, source
	Into int // OpEdge: pattern variable index, destination
}

// Program is a compiled, linear instruction sequence. It never branches:
// NODE instructions are interpreted as nested loops by position, not by
// jump target, which keeps the instruction set at five opcodes instead of
// growing conditional jumps to support it.
type Program []Instr

// compileProgram lowers an assignment order and its tested edges into a
// Program: INIT, then for each variable in order a NODE followed by every
// EDGE whose endpoints are now both bound, then a trailing CALL and STOP.
func compileProgram(order []int, edges [][2]int) Program {
	prog := Program{{Op: OpInit}}
	assigned := make(map[int]bool, len(order))
	emitted := make(map[[2]int]bool, len(edges))
	for _, v := range order {
		prog = append(prog, Instr{Op: OpNode, Var: v})
		assigned[v] = true
		for _, e := range edges {
			key := [2]int{e[0], e[1]}
			if emitted[key] {
				continue
			}
			if assigned[e[0]] && assigned[e[1]] {
				prog = append(prog, Instr{Op: OpEdge, From: e[0], Into: e[1]})
				emitted[key] = true
			}
		}
	}
	prog = append(prog, Instr{Op: OpCall}, Instr{Op: OpStop})
	return prog
}

// nodeSteps returns the positions of every OpNode instruction, in
// program order. Run uses the first entry to find where the inner
// interpretation resumes after the stride-partitioned outer NODE.
func (p Program) nodeSteps() []int {
	var out []int
	for i, instr := range p {
		if instr.Op == OpNode {
			out = append(out, i)
		}
	}
	return out
}

// assignment is the binding built up as the interpreter walks a Program:
// pattern variable index -> chosen identity.
type assignment []codec.Identity
