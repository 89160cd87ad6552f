// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import "pybc/snapshot"

// Snapshot CBOR-encodes co for use as a golden test fixture (see
// package snapshot). Not used by, and not reachable from, Assemble or
// Disassemble.
func (co CodeObject) Snapshot() ([]byte, error) {
	return snapshot.Snapshot(snapshot.CodeObject{
		CodeBytes:       co.CodeBytes,
		Consts:          co.Consts,
		Names:           co.Names,
		Varnames:        co.Varnames,
		Cellvars:        co.Cellvars,
		Freevars:        co.Freevars,
		Filename:        co.Filename,
		Name:            co.Name,
		Qualname:        co.Qualname,
		FirstLineno:     co.FirstLineno,
		Flags:           co.Flags,
		ArgCount:        co.ArgCount,
		PosOnlyArgCount: co.PosOnlyArgCount,
		KwOnlyArgCount:  co.KwOnlyArgCount,
		LineTable:       co.LineTable,
		ExceptionTable:  co.ExceptionTable,
		StackSize:       co.StackSize,
		Version:         co.Version,
	})
}

// RestoreSnapshot decodes a snapshot produced by CodeObject.Snapshot.
func RestoreSnapshot(data []byte) (CodeObject, error) {
	s, err := snapshot.Restore(data)
	if err != nil {
		return CodeObject{}, err
	}
	return CodeObject{
		CodeBytes:       s.CodeBytes,
		Consts:          s.Consts,
		Names:           s.Names,
		Varnames:        s.Varnames,
		Cellvars:        s.Cellvars,
		Freevars:        s.Freevars,
		Filename:        s.Filename,
		Name:            s.Name,
		Qualname:        s.Qualname,
		FirstLineno:     s.FirstLineno,
		Flags:           s.Flags,
		ArgCount:        s.ArgCount,
		PosOnlyArgCount: s.PosOnlyArgCount,
		KwOnlyArgCount:  s.KwOnlyArgCount,
		LineTable:       s.LineTable,
		ExceptionTable:  s.ExceptionTable,
		StackSize:       s.StackSize,
		Version:         s.Version,
	}, nil
}
