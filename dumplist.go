// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import (
	"fmt"
	"io"

	"pybc/dump"
	"pybc/opcodes"
)

// Dump renders an abstract stream as a column-aligned instruction
// listing (component P): one row per Instr, plus label markers and
// try-region boundaries inlined as their own rows, analogous to the
// teacher's CompiledFunction.Fprint but walking semantic arguments
// instead of a raw integer operand.
func Dump(w io.Writer, bc *Bytecode) {
	header := []string{"#", "op", "arg", "line"}
	var rows [][]string
	i := 0
	for _, e := range bc.Elems {
		switch el := e.(type) {
		case LabelMark:
			rows = append(rows, []string{"", el.Label.String() + ":", "", ""})
		case *TryBegin:
			rows = append(rows, []string{"", "TryBegin", fmt.Sprintf("%s -> %s", el.ID, targetString(el.Target)), ""})
		case *TryEnd:
			rows = append(rows, []string{"", "TryEnd", el.Begin.String(), ""})
		case SetLineno:
			rows = append(rows, []string{"", "SetLineno", fmt.Sprintf("%d", el.Line), ""})
		case *Instr:
			line := ""
			if el.Loc.HasLine() {
				line = fmt.Sprintf("%d", el.Loc.StartLine)
			}
			rows = append(rows, []string{fmt.Sprintf("%d", i), el.Op, argString(el.Arg), line})
			i++
		}
	}
	dump.RenderTable(w, fmt.Sprintf("%s (abstract)", bc.Qualname), header, rows)
}

// Dump renders a concrete stream: one row per ConcreteInstr with its
// byte offset and raw integer argument, the form closest to an actual
// disassembly.
func (cb *ConcreteBytecode) Dump(w io.Writer) {
	header := []string{"offset", "op", "arg"}
	var rows [][]string
	offset := 0
	tbl, _ := opcodes.TableFor(cb.Version)
	for _, in := range cb.Instrs {
		rows = append(rows, []string{fmt.Sprintf("%d", offset), in.Op, fmt.Sprintf("%d", in.RawArg)})
		cacheSlots := 0
		if meta, ok := tbl.Lookup(in.Op); ok {
			cacheSlots = meta.CacheSlots
		}
		offset += instrSize(extraBytesNeeded(in.RawArg), cacheSlots)
	}
	dump.RenderTable(w, fmt.Sprintf("%s (concrete)", cb.Qualname), header, rows)
}

func targetString(t Target) string {
	switch tt := t.(type) {
	case LabelTarget:
		return tt.Label.String()
	case BlockTarget:
		return tt.Block.String()
	default:
		return "?"
	}
}

func argString(a Argument) string {
	switch v := a.(type) {
	case NoArgument:
		return ""
	case RawArgument:
		return fmt.Sprintf("%d", v.Value)
	case ConstArgument:
		return fmt.Sprintf("%#v", v.Value)
	case NameArgument:
		return v.Name
	case LocalArgument:
		return v.Name
	case CellArgument:
		return v.Name
	case FreeArgument:
		return v.Name
	case CompareArgument:
		return v.Op.String()
	case BinaryOpArgument:
		return fmt.Sprintf("%d", v.Op)
	case Intrinsic1Argument:
		return fmt.Sprintf("%d", v.Op)
	case Intrinsic2Argument:
		return fmt.Sprintf("%d", v.Op)
	case LoadGlobalArgument:
		if v.PushNull {
			return v.Name + " (+NULL)"
		}
		return v.Name
	case LoadAttrArgument:
		if v.CallAsMethod {
			return v.Name + " (method)"
		}
		return v.Name
	case LoadSuperAttrArgument:
		return v.Name
	case JumpArgument:
		return "-> " + targetString(v.Target)
	default:
		return fmt.Sprintf("%v", a)
	}
}
