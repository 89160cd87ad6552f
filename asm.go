// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import (
	"fmt"
	"io"
	"sort"

	"pybc/exctable"
	"pybc/label"
	"pybc/linetable"
	"pybc/opcodes"
)

// AssembleOptions mirrors the teacher's options-struct shape (an
// io.Writer trace sink plus boolean feature toggles) rather than a
// structured logger.
type AssembleOptions struct {
	MaxPasses  int
	Trace      io.Writer
	CheckStack bool
	StackSize  int // if > 0, bypasses the stack-depth solver entirely
}

// DefaultAssembleOptions returns the defaults: MaxPasses=10, no trace,
// stack check enabled. A zero AssembleOptions differs: Assemble treats
// its MaxPasses as 10, but its CheckStack is false.
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{MaxPasses: 10, CheckStack: true}
}

func (o AssembleOptions) tracef(format string, args ...any) {
	if o.Trace != nil {
		fmt.Fprintf(o.Trace, format, args...)
	}
}

type rawRegion struct {
	begin *TryBegin
	start int
	stop  int
}

// Assemble converts an abstract stream into a concrete one (component
// G): pool construction, the encoding pass, the jump fix-point, and
// exception/line-table finalization.
func Assemble(table opcodes.OpcodeTable, bc *Bytecode, opts AssembleOptions) (*ConcreteBytecode, error) {
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = 10
	}

	consts, names, varnames := buildPools(bc)

	constOffset := 0
	if bc.Docstring != nil {
		dkey := KeyOf(*bc.Docstring)
		for _, v := range consts.items {
			if KeyOf(v).Equal(dkey) {
				return nil, &AssembleError{Op: "pools", Err: ErrDuplicateDocstring}
			}
		}
		constOffset = 1
	}

	cellIndex := make(map[string]int, len(bc.Cellvars))
	for i, n := range bc.Cellvars {
		cellIndex[n] = i
	}
	freeIndex := make(map[string]int, len(bc.Freevars))
	for i, n := range bc.Freevars {
		freeIndex[n] = i
	}

	type work struct {
		in         ConcreteInstr
		cacheSlots int
		extra      int
		isJump     bool
		jumpKind   opcodes.ArgKind
		targetWork int // resolved below
	}

	instrs := bc.Instrs()
	works := make([]work, len(instrs))
	workIndexOf := make(map[*Instr]int, len(instrs))
	for i, in := range instrs {
		workIndexOf[in] = i
	}

	// elemPosToNextWork[i] = index (into works) of the next *Instr at
	// or after Elems position i, or len(works) if none remains.
	elemPosToNextWork := make([]int, len(bc.Elems)+1)
	elemPosToNextWork[len(bc.Elems)] = len(works)
	for i := len(bc.Elems) - 1; i >= 0; i-- {
		if in, ok := bc.Elems[i].(*Instr); ok {
			elemPosToNextWork[i] = workIndexOf[in]
		} else {
			elemPosToNextWork[i] = elemPosToNextWork[i+1]
		}
	}
	// elemPosToPrevWork[i] = index of the last *Instr strictly before
	// position i, or -1 if none.
	elemPosToPrevWork := make([]int, len(bc.Elems)+1)
	running := -1
	for i := 0; i < len(bc.Elems); i++ {
		elemPosToPrevWork[i] = running
		if in, ok := bc.Elems[i].(*Instr); ok {
			running = workIndexOf[in]
		}
	}
	elemPosToPrevWork[len(bc.Elems)] = running

	labelElemPos := make(map[label.Label]int)
	for i, e := range bc.Elems {
		if lm, ok := e.(LabelMark); ok {
			labelElemPos[lm.Label] = i
		}
	}
	resolveTarget := func(t Target) (int, error) {
		switch tt := t.(type) {
		case LabelTarget:
			pos, ok := labelElemPos[tt.Label]
			if !ok {
				return 0, &UnresolvedLabelError{Label: tt.Label, Err: ErrUnresolvedLabel}
			}
			return elemPosToNextWork[pos], nil
		case BlockTarget:
			return 0, fmt.Errorf("assemble: BlockTarget present in an abstract stream; flatten the CFG first")
		default:
			return 0, fmt.Errorf("assemble: unknown target type %T", t)
		}
	}

	// encoding pass
	instrIdx := 0
	var rawRegions []rawRegion
	pendingBegins := make(map[label.TryID]*TryBegin)
	regionStart := make(map[label.TryID]int)
	for pos, e := range bc.Elems {
		switch el := e.(type) {
		case *Instr:
			meta, ok := table.Lookup(el.Op)
			if !ok {
				return nil, &AssembleError{Op: "encode", Err: fmt.Errorf("%w: %s", ErrUnknownOpcode, el.Op)}
			}
			w := work{cacheSlots: meta.CacheSlots}
			w.in.Op = el.Op
			w.in.Loc = el.Loc
			switch a := el.Arg.(type) {
			case NoArgument:
				w.in.RawArg = 0
			case RawArgument:
				w.in.RawArg = uint32(a.Value)
			case ConstArgument:
				w.in.RawArg = uint32(consts.index[a.Key()] + constOffset)
			case NameArgument:
				w.in.RawArg = uint32(names.index[a.Name])
			case LocalArgument:
				w.in.RawArg = uint32(varnames.index[a.Name])
			case CellArgument:
				idx, ok := cellIndex[a.Name]
				if !ok {
					return nil, &AssembleError{Op: "encode", Err: fmt.Errorf("cell variable %q not declared in header", a.Name)}
				}
				w.in.RawArg = uint32(idx)
			case FreeArgument:
				idx, ok := freeIndex[a.Name]
				if !ok {
					return nil, &AssembleError{Op: "encode", Err: fmt.Errorf("free variable %q not declared in header", a.Name)}
				}
				w.in.RawArg = uint32(idx)
			case CompareArgument:
				w.in.RawArg = uint32(a.Op)
			case BinaryOpArgument:
				w.in.RawArg = uint32(a.Op)
			case Intrinsic1Argument:
				w.in.RawArg = uint32(a.Op)
			case Intrinsic2Argument:
				w.in.RawArg = uint32(a.Op)
			case LoadGlobalArgument:
				idx := names.index[a.Name]
				w.in.RawArg = uint32(idx<<1) | b2u(a.PushNull)
			case LoadAttrArgument:
				idx := names.index[a.Name]
				w.in.RawArg = uint32(idx<<1) | b2u(a.CallAsMethod)
			case LoadSuperAttrArgument:
				idx := names.index[a.Name]
				w.in.RawArg = uint32(idx<<2) | b2u(a.PushNull)<<1 | b2u(a.CallAsMethod)
			case JumpArgument:
				w.isJump = true
				w.jumpKind = a.Kind
				tgt, err := resolveTarget(a.Target)
				if err != nil {
					return nil, &AssembleError{Op: "encode", Err: err}
				}
				w.targetWork = tgt
			default:
				return nil, &AssembleError{Op: "encode", Err: fmt.Errorf("unhandled argument type %T", a)}
			}
			works[instrIdx] = w
			instrIdx++
		case *TryBegin:
			pendingBegins[el.ID] = el
			regionStart[el.ID] = elemPosToNextWork[pos]
		case *TryEnd:
			start, ok := regionStart[el.Begin]
			if !ok {
				return nil, &AssembleError{Op: "exctable", Err: fmt.Errorf("TryEnd references unknown TryBegin %s", el.Begin)}
			}
			stop := elemPosToPrevWork[pos]
			if stop < start {
				continue // region covers zero instructions on this path
			}
			rawRegions = append(rawRegions, rawRegion{begin: pendingBegins[el.Begin], start: start, stop: stop})
		case LabelMark, SetLineno:
			// positional/line markers only; no encoding step
		}
	}

	// jump fix-point (§4.3.3). Non-jump instructions' EXTENDED_ARG
	// need is static (their raw argument never changes), so it is
	// seeded once; only jump instructions' extra counts grow across
	// passes, since their raw argument depends on the very offsets
	// being computed.
	extra := make([]int, len(works))
	for i, w := range works {
		if !w.isJump {
			extra[i] = extraBytesNeeded(w.in.RawArg)
		}
	}
	converged := false
	for pass := 0; pass < opts.MaxPasses; pass++ {
		offsets := make([]int, len(works)+1)
		for i, w := range works {
			offsets[i+1] = offsets[i] + instrSize(extra[i], w.cacheSlots)
		}
		changed := false
		for i, w := range works {
			if !w.isJump {
				continue
			}
			endOffset := offsets[i+1]
			targetOffset := offsets[w.targetWork]
			step := jumpStep(bc.Version)
			var rawArg int
			switch w.jumpKind {
			case opcodes.ArgJumpFwd:
				rawArg = (targetOffset - endOffset) / step
			case opcodes.ArgJumpBack:
				rawArg = (endOffset - targetOffset) / step
			case opcodes.ArgJumpAbs:
				rawArg = targetOffset / step
			}
			if rawArg < 0 {
				return nil, &AssembleError{Op: "jump-fixpoint", Err: fmt.Errorf("instruction %d: jump direction mismatch (negative offset)", i)}
			}
			need := extraBytesNeeded(uint32(rawArg))
			if need > extra[i] {
				extra[i] = need
				changed = true
			}
			works[i].in.RawArg = uint32(rawArg)
		}
		opts.tracef("pybc: assemble pass %d changed=%v\n", pass, changed)
		if !changed {
			converged = true
			break
		}
	}
	if !converged {
		return nil, &AssembleError{Op: "jump-fixpoint", Err: ErrJumpsUnstable}
	}

	// finalize exception table: resolve targets, sort, encode order
	var excEntries []exctable.Entry
	for _, r := range rawRegions {
		tgt, err := resolveTarget(r.begin.Target)
		if err != nil {
			return nil, &AssembleError{Op: "exctable", Err: err}
		}
		excEntries = append(excEntries, exctable.Entry{
			Start:      r.start,
			Stop:       r.stop,
			Target:     tgt,
			PushLasti:  r.begin.PushLasti,
			StackDepth: r.begin.StackDepth,
		})
	}
	sort.SliceStable(excEntries, func(i, j int) bool {
		if excEntries[i].Start != excEntries[j].Start {
			return excEntries[i].Start < excEntries[j].Start
		}
		return excEntries[i].Stop < excEntries[j].Stop
	})

	// line table: build Entry spans in the version-appropriate unit
	// domain (byte offsets pre-3.11, instruction-slot indices from
	// 3.11 on).
	offsets := make([]int, len(works)+1)
	for i, w := range works {
		offsets[i+1] = offsets[i] + instrSize(extra[i], w.cacheSlots)
	}
	useCodeUnits := linetableUsesCodeUnits(bc.Version)
	var ltEntries []linetable.Entry
	for i, w := range works {
		start, stop := offsets[i], offsets[i+1]
		if useCodeUnits {
			start, stop = i, i+1
		}
		ltEntries = append(ltEntries, linetable.Entry{Start: start, Stop: stop, Loc: w.in.Loc})
	}
	lt, err := linetable.Encode(bc.Version, ltEntries, bc.FirstLineno)
	if err != nil {
		return nil, &AssembleError{Op: "linetable", Err: err}
	}

	cb := &ConcreteBytecode{
		Header:         bc.Header,
		Consts:         append(prependDocstring(bc.Docstring, constOffset), consts.values()...),
		Names:          names.strings(),
		Varnames:       varnames.strings(),
		ExceptionTable: excEntries,
	}
	var code []byte
	for i, w := range works {
		cb.Instrs = append(cb.Instrs, w.in)
		code, err = encodeInstrBytes(code, table, w.in, extra[i], w.cacheSlots)
		if err != nil {
			return nil, &AssembleError{Op: "finalize", Err: err}
		}
	}
	cb.CodeBytes = code
	cb.LineTableBytes = lt
	cb.ExceptionTableBytes = exctable.Encode(excEntries)

	if opts.StackSize > 0 {
		cb.StackSize = opts.StackSize
	} else {
		depth, err := computeStackSizeFromAbstract(table, bc, opts.CheckStack)
		if err != nil {
			return nil, err
		}
		cb.StackSize = depth
	}

	return cb, nil
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func prependDocstring(doc *string, offset int) []any {
	if offset == 0 || doc == nil {
		return nil
	}
	return []any{*doc}
}
