// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import "pybc/opcodes"

// ToCodeObject packages a fully-assembled ConcreteBytecode as the
// external CodeObject value (component K), ready to hand to a
// CodeObjectFactory.
func (cb *ConcreteBytecode) ToCodeObject() CodeObject {
	return CodeObject{
		CodeBytes:       cb.CodeBytes,
		Consts:          cb.Consts,
		Names:           cb.Names,
		Varnames:        cb.Varnames,
		Cellvars:        cb.Cellvars,
		Freevars:        cb.Freevars,
		Filename:        cb.Filename,
		Name:            cb.Name,
		Qualname:        cb.Qualname,
		FirstLineno:     cb.FirstLineno,
		Flags:           cb.Flags,
		ArgCount:        cb.ArgCount,
		PosOnlyArgCount: cb.PosOnlyArgCount,
		KwOnlyArgCount:  cb.KwOnlyArgCount,
		LineTable:       cb.LineTableBytes,
		ExceptionTable:  cb.ExceptionTableBytes,
		StackSize:       cb.StackSize,
		Version:         cb.Version,
	}
}

// AssembleToCodeObject runs Assemble and hands the result to factory,
// the common end-to-end entry point for callers who just want a
// HostCode back.
func AssembleToCodeObject(table opcodes.OpcodeTable, bc *Bytecode, opts AssembleOptions, factory CodeObjectFactory) (HostCode, error) {
	cb, err := Assemble(table, bc, opts)
	if err != nil {
		return nil, err
	}
	return factory.New(cb.ToCodeObject())
}
