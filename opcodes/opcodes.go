// Package opcodes holds the per-version opcode metadata table:
// mnemonic <-> number, argument category, stack effect and inline
// cache-slot count (component A of the bytecode pipeline, plus the L
// table loader). The shipped tables are a best-effort default, loaded
// once per version from an embedded YAML document; callers that embed
// a real CPython build are expected to call RegisterTable with that
// interpreter's authoritative numbers before disassembling its code.
package opcodes

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"pybc/pyver"
)

//go:embed tables/*.yaml
var defaultTables embed.FS

// ArgKind classifies the semantic shape of an instruction's argument.
type ArgKind int

const (
	ArgNone ArgKind = iota
	ArgJumpAbs
	ArgJumpFwd
	ArgJumpBack
	ArgLocal
	ArgName
	ArgCell
	ArgFree
	ArgConst
	ArgCompare
	ArgBinaryOp
	ArgIntrinsic1
	ArgIntrinsic2
	ArgLoadGlobal
	ArgLoadAttr
	ArgLoadSuperAttr
	ArgRaw
)

var argKindNames = map[string]ArgKind{
	"NoArg":          ArgNone,
	"JumpAbs":        ArgJumpAbs,
	"JumpFwd":        ArgJumpFwd,
	"JumpBack":       ArgJumpBack,
	"Local":          ArgLocal,
	"Name":           ArgName,
	"Cell":           ArgCell,
	"Free":           ArgFree,
	"Const":          ArgConst,
	"Compare":        ArgCompare,
	"BinaryOp":       ArgBinaryOp,
	"Intrinsic1":     ArgIntrinsic1,
	"Intrinsic2":     ArgIntrinsic2,
	"LoadGlobal":     ArgLoadGlobal,
	"LoadAttr":       ArgLoadAttr,
	"LoadSuperAttr":  ArgLoadSuperAttr,
	"Raw":            ArgRaw,
}

// IsJump reports whether k is one of the jump argument categories.
func (k ArgKind) IsJump() bool {
	return k == ArgJumpAbs || k == ArgJumpFwd || k == ArgJumpBack
}

func (k ArgKind) String() string {
	for name, v := range argKindNames {
		if v == k {
			return name
		}
	}
	return "Unknown"
}

// OpMeta is the per-opcode metadata record.
type OpMeta struct {
	Name   string
	Number byte
	Arg    ArgKind
	// PopPush returns the operand-stack pop count and push count for an
	// instruction with the given raw argument, distinguishing the
	// "jump taken" stack effect from the fallthrough effect for
	// conditional-jump opcodes (spec.md §4.5: "using the jump=True
	// variant of the effect, in which the stack effect often differs").
	PopPush func(oparg int, jump bool) (pop, push int)
	// CacheSlots is the number of inline-cache byte pairs following
	// this opcode in concrete form (0 before 3.11).
	CacheSlots int
	// Pseudo marks opcodes that cannot be constructed as abstract
	// instructions (EXTENDED_ARG, CACHE, instrumented variants).
	Pseudo bool
}

// OpcodeTable is the full metadata set for one interpreter version.
type OpcodeTable struct {
	Version  pyver.Version
	ByOpcode map[byte]OpMeta
	ByName   map[string]OpMeta
}

// Lookup resolves a mnemonic to its metadata.
func (t OpcodeTable) Lookup(name string) (OpMeta, bool) {
	m, ok := t.ByName[name]
	return m, ok
}

// LookupOpcode resolves a numeric opcode to its metadata. The second
// return distinguishes "not found" from a present-but-zero-value entry.
func (t OpcodeTable) LookupOpcode(op byte) (OpMeta, bool) {
	m, ok := t.ByOpcode[op]
	return m, ok
}

type yamlStackEffect struct {
	Pop       int  `yaml:"pop"`
	Push      int  `yaml:"push"`
	PopOparg  bool `yaml:"pop_oparg"`
	PushOparg bool `yaml:"push_oparg"`
	JumpPop   *int `yaml:"jump_pop"`
	JumpPush  *int `yaml:"jump_push"`
}

type yamlOp struct {
	Name       string `yaml:"name"`
	Number     int    `yaml:"number"`
	Arg        string `yaml:"arg"`
	Pop        int    `yaml:"pop"`
	Push       int    `yaml:"push"`
	PopOparg   bool   `yaml:"pop_oparg"`
	PushOparg  bool   `yaml:"push_oparg"`
	JumpPop    *int   `yaml:"jump_pop"`
	JumpPush   *int   `yaml:"jump_push"`
	CacheSlots int    `yaml:"cache_slots"`
	Pseudo     bool   `yaml:"pseudo"`
}

type yamlDoc struct {
	Version string   `yaml:"version"`
	Opcodes []yamlOp `yaml:"opcodes"`
}

func buildPopPush(op yamlOp) func(oparg int, jump bool) (int, int) {
	basePop, basePush := op.Pop, op.Push
	jumpPop, jumpPush := basePop, basePush
	if op.JumpPop != nil {
		jumpPop = *op.JumpPop
	}
	if op.JumpPush != nil {
		jumpPush = *op.JumpPush
	}
	popOparg, pushOparg := op.PopOparg, op.PushOparg
	return func(oparg int, jump bool) (pop, push int) {
		pop, push = basePop, basePush
		if jump {
			pop, push = jumpPop, jumpPush
		}
		if popOparg {
			pop += oparg
		}
		if pushOparg {
			push += oparg
		}
		return
	}
}

func decodeTable(data []byte) (OpcodeTable, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return OpcodeTable{}, fmt.Errorf("opcodes: decode table: %w", err)
	}
	v, err := pyver.Parse(doc.Version)
	if err != nil {
		return OpcodeTable{}, err
	}
	t := OpcodeTable{
		Version:  v,
		ByOpcode: make(map[byte]OpMeta, len(doc.Opcodes)),
		ByName:   make(map[string]OpMeta, len(doc.Opcodes)),
	}
	for _, op := range doc.Opcodes {
		kind, ok := argKindNames[op.Arg]
		if !ok {
			return OpcodeTable{}, fmt.Errorf("opcodes: %s: unknown arg kind %q", op.Name, op.Arg)
		}
		meta := OpMeta{
			Name:       op.Name,
			Number:     byte(op.Number),
			Arg:        kind,
			PopPush:    buildPopPush(op),
			CacheSlots: op.CacheSlots,
			Pseudo:     op.Pseudo,
		}
		t.ByOpcode[meta.Number] = meta
		t.ByName[meta.Name] = meta
	}
	return t, nil
}

var (
	registryMu sync.RWMutex
	registry   = map[pyver.Version]OpcodeTable{}
)

func defaultTableFile(v pyver.Version) string {
	switch v {
	case pyver.V38:
		return "tables/py38.yaml"
	case pyver.V39:
		return "tables/py39.yaml"
	case pyver.V310:
		return "tables/py310.yaml"
	case pyver.V311:
		return "tables/py311.yaml"
	case pyver.V312:
		return "tables/py312.yaml"
	default:
		return ""
	}
}

func loadDefault(v pyver.Version) (OpcodeTable, error) {
	path := defaultTableFile(v)
	if path == "" {
		return OpcodeTable{}, fmt.Errorf("opcodes: unsupported version %s", v)
	}
	data, err := defaultTables.ReadFile(path)
	if err != nil {
		return OpcodeTable{}, fmt.Errorf("opcodes: read embedded table %s: %w", path, err)
	}
	return decodeTable(data)
}

// TableFor returns the metadata table for v, lazily loading (and
// caching) the embedded default the first time it is requested. The
// cache is process-global and immutable once populated, matching the
// "opcode metadata table is process-global, immutable after
// initialization" resource policy.
func TableFor(v pyver.Version) (OpcodeTable, error) {
	registryMu.RLock()
	t, ok := registry[v]
	registryMu.RUnlock()
	if ok {
		return t, nil
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if t, ok = registry[v]; ok {
		return t, nil
	}
	t, err := loadDefault(v)
	if err != nil {
		return OpcodeTable{}, err
	}
	registry[v] = t
	return t, nil
}

// RegisterTable overrides the table used for v from this point
// forward, process-wide. Intended to be called once at startup by a
// caller embedding a real interpreter whose opcode numbers drifted
// from the shipped defaults.
func RegisterTable(v pyver.Version, t OpcodeTable) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[v] = t
}

// LoadTableYAML decodes a caller-supplied YAML document in the same
// shape as the embedded defaults, for callers that keep their
// override table as data rather than constructing OpcodeTable by hand.
func LoadTableYAML(data []byte) (OpcodeTable, error) {
	return decodeTable(data)
}
