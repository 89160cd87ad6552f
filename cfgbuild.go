// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import "pybc/label"

// ToCFG folds an abstract stream into a control-flow graph (component
// H): a new block boundary opens before every label, after every
// final instruction, and after every conditional jump. Label targets
// on jumps and TryBegins are rewritten in place to BlockTargets.
func ToCFG(bc *Bytecode) (*CFG, error) {
	var chunks [][]Elem
	var cur []Elem
	labelChunk := make(map[label.Label]int)

	flush := func() {
		if cur == nil {
			// Nothing accumulated since the last flush (or since the
			// start of the stream): a label at the head of the stream or
			// immediately following a final or conditional-jump
			// instruction would otherwise produce a dead empty block.
			return
		}
		chunks = append(chunks, cur)
		cur = nil
	}

	type condExit struct {
		label label.Label
		ids   []label.TryID
	}
	var active []label.TryID
	var exits []condExit

	for _, e := range bc.Elems {
		switch el := e.(type) {
		case LabelMark:
			flush()
			labelChunk[el.Label] = len(chunks)
			continue
		case *TryBegin:
			active = append(active, el.ID)
		case *TryEnd:
			filtered := active[:0:0]
			for _, id := range active {
				if id != el.Begin {
					filtered = append(filtered, id)
				}
			}
			active = filtered
		}
		cur = append(cur, e)
		if in, ok := e.(*Instr); ok {
			if IsConditionalJump(in.Op) && len(active) > 0 {
				if j, ok := in.Arg.(JumpArgument); ok {
					if lt, ok := j.Target.(LabelTarget); ok {
						ids := make([]label.TryID, len(active))
						copy(ids, active)
						exits = append(exits, condExit{label: lt.Label, ids: ids})
					}
				}
			}
			if IsFinal(in.Op) || IsConditionalJump(in.Op) {
				flush()
			}
		}
	}
	flush()
	if len(chunks) == 0 {
		// An empty stream still yields one (empty) entry block.
		chunks = append(chunks, nil)
	}

	blocks := make([]*BasicBlock, len(chunks))
	for i, c := range chunks {
		next := BlockID(i + 1)
		if i+1 >= len(chunks) {
			next = NoBlock
		}
		if last := lastInstrOf(c); last != nil && IsFinal(last.Op) {
			next = NoBlock
		}
		blocks[i] = &BasicBlock{ID: BlockID(i), Elems: c, Next: next}
	}

	resolve := func(t Target) (Target, error) {
		lt, ok := t.(LabelTarget)
		if !ok {
			return t, nil
		}
		idx, ok := labelChunk[lt.Label]
		if !ok {
			return nil, &UnresolvedLabelError{Label: lt.Label, Err: ErrUnresolvedLabel}
		}
		return BlockTarget{Block: BlockID(idx)}, nil
	}

	for _, b := range blocks {
		for _, e := range b.Elems {
			switch el := e.(type) {
			case *Instr:
				if j, ok := el.Arg.(JumpArgument); ok {
					nt, err := resolve(j.Target)
					if err != nil {
						return nil, err
					}
					j.Target = nt
					el.Arg = j
				}
			case *TryBegin:
				nt, err := resolve(el.Target)
				if err != nil {
					return nil, err
				}
				el.Target = nt
			}
		}
	}

	for _, ce := range exits {
		idx, ok := labelChunk[ce.label]
		if !ok {
			return nil, &UnresolvedLabelError{Label: ce.label, Err: ErrUnresolvedLabel}
		}
		target := blocks[idx]
		for _, id := range ce.ids {
			if hasLeadingTryEnd(target.Elems, id) {
				continue
			}
			target.Elems = append([]Elem{&TryEnd{Begin: id}}, target.Elems...)
		}
	}

	return &CFG{Header: bc.Header, Blocks: blocks, Entry: BlockID(0)}, nil
}

func hasLeadingTryEnd(elems []Elem, id label.TryID) bool {
	for _, e := range elems {
		te, ok := e.(*TryEnd)
		if !ok {
			return false
		}
		if te.Begin == id {
			return true
		}
	}
	return false
}

func lastInstrOf(elems []Elem) *Instr {
	for i := len(elems) - 1; i >= 0; i-- {
		if in, ok := elems[i].(*Instr); ok {
			return in
		}
	}
	return nil
}

// FromCFG flattens a control-flow graph back into an abstract stream
// (the reverse direction of component H): blocks are visited in their
// stored order, a fresh Label is minted for each, and block references
// in jumps/TryBegins are replaced by those labels. Duplicate TryEnds
// produced by ToCFG's conditional-exit rule are collapsed when they
// are not active on the path reaching them.
func FromCFG(cfg *CFG) *Bytecode {
	blockLabel := make(map[BlockID]label.Label, len(cfg.Blocks))
	for _, b := range cfg.Blocks {
		blockLabel[b.ID] = label.New()
	}

	bc := &Bytecode{Header: cfg.Header}
	active := make(map[label.TryID]bool)
	for _, b := range cfg.Blocks {
		bc.Append(LabelMark{Label: blockLabel[b.ID]})
		for _, e := range b.Elems {
			switch el := e.(type) {
			case *Instr:
				if j, ok := el.Arg.(JumpArgument); ok {
					if bt, ok := j.Target.(BlockTarget); ok {
						j.Target = LabelTarget{Label: blockLabel[bt.Block]}
						el.Arg = j
					}
				}
				bc.Append(el)
			case *TryBegin:
				if bt, ok := el.Target.(BlockTarget); ok {
					el.Target = LabelTarget{Label: blockLabel[bt.Block]}
				}
				active[el.ID] = true
				bc.Append(el)
			case *TryEnd:
				if !active[el.Begin] {
					continue // not active on this path: collapses per §4.4
				}
				active[el.Begin] = false
				bc.Append(el)
			default:
				bc.Append(e)
			}
		}
	}
	return bc
}
