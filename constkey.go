// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import (
	"fmt"
	"math"
	"sort"
)

// Tuple is a constant-pool tuple value, keyed structurally by its
// elements (spec.md §4.3.1: "tuples ... by recursive key on their
// elements").
type Tuple []any

// FrozenSet is a constant-pool frozenset value, keyed by the sorted
// keys of its members so that member order never affects identity.
type FrozenSet []any

// CodeRef wraps a nested compiled code unit for constant-pool
// purposes; it is keyed by identity, never by structural content.
type CodeRef struct {
	Code *CodeObject
}

// ConstKey is the dedup key used when building the constants pool.
// Two constants receive the same pool slot iff their keys are equal;
// equal-but-differently-typed host values (1 vs 1.0 vs True) and
// +0.0 vs -0.0 always receive distinct keys.
type ConstKey struct {
	s string
}

// KeyOf computes the constant-dedup key for v.
func KeyOf(v any) ConstKey {
	return ConstKey{s: keyString(v)}
}

func keyString(v any) string {
	switch x := v.(type) {
	case nil:
		return "n:"
	case bool:
		if x {
			return "b:1"
		}
		return "b:0"
	case int:
		return fmt.Sprintf("i:%d", x)
	case int64:
		return fmt.Sprintf("i:%d", x)
	case float64:
		// Bitwise compare so +0.0 and -0.0 (equal under ==) receive
		// distinct keys, and NaN constants (never equal to themselves
		// under ==) still dedup against an identical NaN payload.
		return fmt.Sprintf("f:%x", math.Float64bits(x))
	case complex128:
		return fmt.Sprintf("c:%x:%x", math.Float64bits(real(x)), math.Float64bits(imag(x)))
	case string:
		return fmt.Sprintf("s:%s", x)
	case []byte:
		return fmt.Sprintf("y:%s", x)
	case Tuple:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = keyString(e)
		}
		return fmt.Sprintf("t:(%v)", parts)
	case FrozenSet:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = keyString(e)
		}
		sort.Strings(parts)
		return fmt.Sprintf("z:{%v}", parts)
	case CodeRef:
		return fmt.Sprintf("g:%p", x.Code)
	case *CodeObject:
		return fmt.Sprintf("g:%p", x)
	default:
		return fmt.Sprintf("o:%T:%v", x, x)
	}
}

// Equal reports whether two keys denote the same constant-pool slot.
func (k ConstKey) Equal(other ConstKey) bool { return k.s == other.s }
