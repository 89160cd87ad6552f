// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import (
	"fmt"

	"pybc/opcodes"
)

// b2i converts a bool to 0/1, matching the push_lasti contribution to
// a handler's entry depth (spec.md §4.5): the interpreter pushes the
// exception object and, when push_lasti is set, the instruction offset.
func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// opargOf extracts the plain integer oparg a PopPush effect needs for
// its pop_oparg/push_oparg adjustment. Only RawArgument carries one;
// every other argument kind's stack effect is oparg-independent.
func opargOf(a Argument) int {
	if r, ok := a.(RawArgument); ok {
		return r.Value
	}
	return 0
}

// computeStackSizeFromAbstract folds bc into a CFG and runs the
// worklist solver over it, the entry point Assemble uses when the
// caller hasn't supplied an explicit StackSize.
func computeStackSizeFromAbstract(table opcodes.OpcodeTable, bc *Bytecode, checkUnderflow bool) (int, error) {
	cfg, err := ToCFG(bc)
	if err != nil {
		return 0, err
	}
	return computeStackSize(table, cfg, checkUnderflow)
}

// computeStackSize runs the worklist fix-point stack-depth solver
// over a control-flow graph (component I, spec.md §4.5): every block
// is entered at a single known depth, walked instruction by
// instruction using the opcode table's PopPush effect (the jump=true
// variant for the taken branch of a conditional jump), and its
// successors and exception targets are seeded with the resulting
// depths. A block reached at two different depths is an
// inconsistency; a pop past zero is an underflow, reported only when
// checkUnderflow is set.
func computeStackSize(table opcodes.OpcodeTable, cfg *CFG, checkUnderflow bool) (int, error) {
	depthAt := make(map[BlockID]int)
	var queue []BlockID

	var seed func(id BlockID, depth int) error
	seed = func(id BlockID, depth int) error {
		if have, ok := depthAt[id]; ok {
			if have != depth {
				return &StackError{Block: id, Err: ErrInconsistentStack}
			}
			return nil
		}
		depthAt[id] = depth
		queue = append(queue, id)
		return nil
	}

	if err := seed(cfg.Entry, 0); err != nil {
		return 0, err
	}

	max := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		b := cfg.Block(id)
		if b == nil {
			continue
		}
		depth := depthAt[id]

		for _, e := range b.Elems {
			if tb, ok := e.(*TryBegin); ok {
				bt, ok := tb.Target.(BlockTarget)
				if !ok {
					return 0, &StackError{Block: id, Err: fmt.Errorf("TryBegin target is not a resolved block; flatten the CFG first")}
				}
				if err := seed(bt.Block, tb.StackDepth+1+b2i(tb.PushLasti)); err != nil {
					return 0, err
				}
			}
		}

		for pc, e := range b.Elems {
			in, ok := e.(*Instr)
			if !ok {
				continue
			}
			meta, ok := table.Lookup(in.Op)
			if !ok {
				return 0, &StackError{Block: id, PC: pc, Err: fmt.Errorf("%w: %s", ErrUnknownOpcode, in.Op)}
			}
			oparg := opargOf(in.Arg)

			if IsConditionalJump(in.Op) {
				jPop, jPush := meta.PopPush(oparg, true)
				if checkUnderflow && depth < jPop {
					return 0, &StackError{Block: id, PC: pc, Err: ErrStackUnderflow}
				}
				jdepth := depth - jPop + jPush
				if jdepth > max {
					max = jdepth
				}
				if j, ok := in.Arg.(JumpArgument); ok {
					if bt, ok := j.Target.(BlockTarget); ok {
						if err := seed(bt.Block, jdepth); err != nil {
							return 0, err
						}
					}
				}
			}

			pop, push := meta.PopPush(oparg, false)
			if checkUnderflow && depth < pop {
				return 0, &StackError{Block: id, PC: pc, Err: ErrStackUnderflow}
			}
			depth = depth - pop + push
			if depth > max {
				max = depth
			}

			if !IsConditionalJump(in.Op) {
				if j, ok := in.Arg.(JumpArgument); ok {
					if bt, ok := j.Target.(BlockTarget); ok {
						if err := seed(bt.Block, depth); err != nil {
							return 0, err
						}
					}
				}
			}
		}

		if b.Next != NoBlock {
			if err := seed(b.Next, depth); err != nil {
				return 0, err
			}
		}
	}

	return max, nil
}
