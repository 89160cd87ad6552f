// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import (
	"fmt"
	"sort"

	"pybc/exctable"
	"pybc/label"
	"pybc/linetable"
	"pybc/opcodes"
	"pybc/pyver"
)

// UnpackConcrete unpacks a CodeObject's raw bytes into a
// ConcreteBytecode (the first step of component F): EXTENDED_ARG
// prefixes are folded into the following instruction's RawArg, except
// when the run is terminated by a NOP, in which case each
// EXTENDED_ARG and the NOP are kept as separate literal ConcreteInstr
// entries (spec.md's open question on the EXTENDED_ARG/NOP asymmetry).
func UnpackConcrete(table opcodes.OpcodeTable, co CodeObject) (*ConcreteBytecode, error) {
	extMeta, ok := table.Lookup("EXTENDED_ARG")
	if !ok {
		return nil, &DisassembleError{Err: fmt.Errorf("%w: EXTENDED_ARG", ErrUnknownOpcode)}
	}

	code := co.CodeBytes
	cb := &ConcreteBytecode{
		Header: Header{
			ArgCount:        co.ArgCount,
			PosOnlyArgCount: co.PosOnlyArgCount,
			KwOnlyArgCount:  co.KwOnlyArgCount,
			Flags:           co.Flags,
			FirstLineno:     co.FirstLineno,
			Filename:        co.Filename,
			Name:            co.Name,
			Qualname:        co.Qualname,
			Cellvars:        co.Cellvars,
			Freevars:        co.Freevars,
			Version:         co.Version,
		},
		Consts:              co.Consts,
		Names:               co.Names,
		Varnames:            co.Varnames,
		StackSize:           co.StackSize,
		LineTableBytes:      co.LineTable,
		ExceptionTableBytes: co.ExceptionTable,
		CodeBytes:           code,
	}

	i := 0
	for i < len(code) {
		start := i
		var extBytes []byte
		for i+1 < len(code) && code[i] == extMeta.Number {
			extBytes = append(extBytes, code[i+1])
			i += 2
		}
		if i+1 >= len(code) {
			return nil, &DisassembleError{Offset: start, Err: fmt.Errorf("truncated instruction stream")}
		}
		opByte, argByte := code[i], code[i+1]
		i += 2
		meta, ok := table.LookupOpcode(opByte)
		if !ok {
			return nil, &DisassembleError{Offset: i - 2, Err: fmt.Errorf("%w: opcode byte %d", ErrUnknownOpcode, opByte)}
		}

		if meta.Name == "NOP" && len(extBytes) > 0 {
			for _, b := range extBytes {
				cb.Instrs = append(cb.Instrs, ConcreteInstr{Op: "EXTENDED_ARG", RawArg: uint32(b)})
			}
			cb.Instrs = append(cb.Instrs, ConcreteInstr{Op: "NOP", RawArg: uint32(argByte)})
		} else {
			var raw uint32
			for _, b := range extBytes {
				raw = raw<<8 | uint32(b)
			}
			raw = raw<<8 | uint32(argByte)
			cb.Instrs = append(cb.Instrs, ConcreteInstr{Op: meta.Name, RawArg: raw})
		}

		i += meta.CacheSlots * unit
		if i > len(code) {
			return nil, &DisassembleError{Offset: start, Err: fmt.Errorf("inline cache slots run past end of code")}
		}
	}
	return cb, nil
}

// Disassemble converts a CodeObject into the abstract stream
// (component F, concrete -> abstract): it unpacks the raw bytes,
// decodes the line table into a per-instruction Location, decodes the
// exception table into TryBegin/TryEnd pairs ordered per spec.md's
// "identical start, sorted by descending stop" nesting rule, and
// materializes one Label per distinct jump/exception target.
func Disassemble(table opcodes.OpcodeTable, co CodeObject) (*Bytecode, error) {
	cb, err := UnpackConcrete(table, co)
	if err != nil {
		return nil, err
	}

	// literal is true for a preserved EXTENDED_ARG/NOP literal that
	// does not correspond to a real abstract instruction.
	type decoded struct {
		instr      ConcreteInstr
		meta       opcodes.OpMeta
		byteOffset int
		literal    bool
	}
	var items []decoded
	offset := 0
	for _, in := range cb.Instrs {
		meta, ok := table.Lookup(in.Op)
		if !ok {
			return nil, &DisassembleError{Offset: offset, Err: fmt.Errorf("%w: %s", ErrUnknownOpcode, in.Op)}
		}
		items = append(items, decoded{instr: in, meta: meta, byteOffset: offset, literal: meta.Pseudo})
		// A folded instruction also occupies the EXTENDED_ARG prefixes
		// its RawArg needs.
		offset += instrSize(extraBytesNeeded(in.RawArg), meta.CacheSlots)
	}

	// workIndex[j] maps an items[] position to its position among
	// non-literal (real) instructions; byteOffset->workIndex resolves
	// jump targets and, pre-3.11, line-table spans.
	workIndex := make([]int, len(items))
	offsetToWork := make(map[int]int)
	n := 0
	for j, it := range items {
		if it.literal {
			workIndex[j] = -1
			continue
		}
		offsetToWork[it.byteOffset] = n
		workIndex[j] = n
		n++
	}
	endOffset := offset

	useCodeUnits := linetableUsesCodeUnits(co.Version)
	workOffsets := make([]int, n+1)
	for j, it := range items {
		if it.literal {
			continue
		}
		sz := instrSize(extraBytesNeeded(it.instr.RawArg), it.meta.CacheSlots)
		workOffsets[workIndex[j]+1] = workOffsets[workIndex[j]] + sz
	}

	resolveOffset := func(off int) (int, error) {
		if off == endOffset {
			return n, nil
		}
		idx, ok := offsetToWork[off]
		if !ok {
			return 0, fmt.Errorf("offset %d does not land on an instruction boundary", off)
		}
		return idx, nil
	}

	// line table
	ltEntries, err := linetable.Decode(co.Version, co.LineTable, co.FirstLineno)
	if err != nil {
		return nil, &DisassembleError{Err: err}
	}
	locs := make([]linetable.Location, n)
	for i := range locs {
		locs[i] = linetable.Absent
	}
	ei := 0
	for idx := 0; idx < n; idx++ {
		pos := idx
		if !useCodeUnits {
			pos = workOffsets[idx]
		}
		for ei < len(ltEntries) && ltEntries[ei].Stop <= pos {
			ei++
		}
		if ei < len(ltEntries) && ltEntries[ei].Start <= pos && pos < ltEntries[ei].Stop {
			locs[idx] = ltEntries[ei].Loc
		}
	}

	// exception table
	excEntries, err := exctable.Decode(co.ExceptionTable)
	if err != nil {
		return nil, &DisassembleError{Err: err}
	}
	sort.SliceStable(excEntries, func(i, j int) bool {
		if excEntries[i].Start != excEntries[j].Start {
			return excEntries[i].Start < excEntries[j].Start
		}
		return excEntries[i].Stop > excEntries[j].Stop // descending stop
	})

	labelAt := make(map[int]label.Label)
	labelFor := func(idx int) label.Label {
		if l, ok := labelAt[idx]; ok {
			return l
		}
		l := label.New()
		labelAt[idx] = l
		return l
	}

	type beginRec struct {
		id     label.TryID
		entry  exctable.Entry
	}
	beginsAt := make(map[int][]beginRec)
	endsAt := make(map[int][]label.TryID)
	for _, e := range excEntries {
		id := label.NewTryID()
		beginsAt[e.Start] = append(beginsAt[e.Start], beginRec{id: id, entry: e})
		labelFor(e.Target)
		endsAt[e.Stop+1] = append(endsAt[e.Stop+1], id)
	}

	bc := &Bytecode{Header: cb.Header}

	for j, it := range items {
		idx := workIndex[j]
		if it.literal {
			continue
		}
		for _, b := range beginsAt[idx] {
			bc.Append(&TryBegin{
				ID:         b.id,
				Target:     LabelTarget{Label: labelFor(b.entry.Target)},
				PushLasti:  b.entry.PushLasti,
				StackDepth: b.entry.StackDepth,
			})
		}
		if _, isTarget := labelAt[idx]; isTarget {
			bc.Append(LabelMark{Label: labelFor(idx)})
		}

		var arg Argument
		var err error
		if it.meta.Arg.IsJump() {
			arg, err = decodeJump(co.Version, it.meta.Arg, it.byteOffset, extraBytesNeeded(it.instr.RawArg)+it.meta.CacheSlots, it.instr.RawArg, resolveOffset, labelFor)
		} else {
			arg, err = decodeArgument(table, it.meta, co, it.instr.RawArg, resolveOffset, labelFor)
		}
		if err != nil {
			return nil, &DisassembleError{Offset: it.byteOffset, Err: err}
		}
		in := &Instr{Op: it.meta.Name, Arg: arg, Loc: locs[idx]}
		bc.Append(in)

		for _, id := range endsAt[idx+1] {
			bc.Append(&TryEnd{Begin: id})
		}
	}
	if _, isTarget := labelAt[n]; isTarget {
		bc.Append(LabelMark{Label: labelFor(n)})
	}

	return bc, nil
}

func decodeJump(v pyver.Version, kind opcodes.ArgKind, instrOffset, cacheSlots int, raw uint32, resolveOffset func(int) (int, error), labelFor func(int) label.Label) (Argument, error) {
	step := jumpStep(v)
	end := instrOffset + unit*(1+cacheSlots)
	var target int
	switch kind {
	case opcodes.ArgJumpFwd:
		target = end + int(raw)*step
	case opcodes.ArgJumpBack:
		target = end - int(raw)*step
	case opcodes.ArgJumpAbs:
		target = int(raw) * step
	}
	idx, err := resolveOffset(target)
	if err != nil {
		return nil, fmt.Errorf("jump target: %w", err)
	}
	return JumpArgument{Kind: kind, Target: LabelTarget{Label: labelFor(idx)}}, nil
}

func decodeArgument(table opcodes.OpcodeTable, meta opcodes.OpMeta, co CodeObject, raw uint32, resolveOffset func(int) (int, error), labelFor func(int) label.Label) (Argument, error) {
	switch meta.Arg {
	case opcodes.ArgNone:
		return NoArgument{}, nil
	case opcodes.ArgRaw:
		return RawArgument{Value: int(raw)}, nil
	case opcodes.ArgConst:
		if int(raw) >= len(co.Consts) {
			return nil, fmt.Errorf("const index %d out of range", raw)
		}
		return ConstArgument{Value: co.Consts[raw]}, nil
	case opcodes.ArgName:
		if int(raw) >= len(co.Names) {
			return nil, fmt.Errorf("name index %d out of range", raw)
		}
		return NameArgument{Name: co.Names[raw]}, nil
	case opcodes.ArgLocal:
		if int(raw) >= len(co.Varnames) {
			return nil, fmt.Errorf("local index %d out of range", raw)
		}
		return LocalArgument{Name: co.Varnames[raw]}, nil
	case opcodes.ArgCell:
		if int(raw) >= len(co.Cellvars) {
			return nil, fmt.Errorf("cell index %d out of range", raw)
		}
		return CellArgument{Name: co.Cellvars[raw]}, nil
	case opcodes.ArgFree:
		if int(raw) >= len(co.Freevars) {
			return nil, fmt.Errorf("free index %d out of range", raw)
		}
		return FreeArgument{Name: co.Freevars[raw]}, nil
	case opcodes.ArgCompare:
		return CompareArgument{Op: CompareOp(raw)}, nil
	case opcodes.ArgBinaryOp:
		return BinaryOpArgument{Op: BinaryOp(raw)}, nil
	case opcodes.ArgIntrinsic1:
		return Intrinsic1Argument{Op: Intrinsic1(raw)}, nil
	case opcodes.ArgIntrinsic2:
		return Intrinsic2Argument{Op: Intrinsic2(raw)}, nil
	case opcodes.ArgLoadGlobal:
		idx := raw >> 1
		if int(idx) >= len(co.Names) {
			return nil, fmt.Errorf("name index %d out of range", idx)
		}
		return LoadGlobalArgument{PushNull: raw&1 != 0, Name: co.Names[idx]}, nil
	case opcodes.ArgLoadAttr:
		idx := raw >> 1
		if int(idx) >= len(co.Names) {
			return nil, fmt.Errorf("name index %d out of range", idx)
		}
		return LoadAttrArgument{CallAsMethod: raw&1 != 0, Name: co.Names[idx]}, nil
	case opcodes.ArgLoadSuperAttr:
		idx := raw >> 2
		if int(idx) >= len(co.Names) {
			return nil, fmt.Errorf("name index %d out of range", idx)
		}
		return LoadSuperAttrArgument{CallAsMethod: raw&1 != 0, PushNull: (raw>>1)&1 != 0, Name: co.Names[idx]}, nil
	case opcodes.ArgJumpAbs, opcodes.ArgJumpFwd, opcodes.ArgJumpBack:
		return nil, fmt.Errorf("jump arguments are resolved by decodeJump, not decodeArgument")
	default:
		return nil, fmt.Errorf("unhandled argument kind %s", meta.Arg)
	}
}
