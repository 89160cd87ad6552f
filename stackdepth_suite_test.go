package pybc

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"pybc/linetable"
	"pybc/opcodes"
	"pybc/pyver"
)

// Specs registered here run under the single RunSpecs bootstrap in
// cfg_suite_test.go (package pybc_test); Ginkgo's global registry is
// shared across every file in a test binary regardless of package.

var _ = Describe("computeStackSize", func() {
	var tbl opcodes.OpcodeTable

	BeforeEach(func() {
		var err error
		tbl, err = opcodes.TableFor(pyver.V311)
		Expect(err).NotTo(HaveOccurred())
	})

	instr := func(op string, arg Argument) *Instr {
		in, err := NewInstr(tbl, op, arg, linetable.Absent)
		Expect(err).NotTo(HaveOccurred())
		return in
	}

	Context("a block that pushes then consumes two values", func() {
		It("reports the peak depth, not the final depth", func() {
			block := &BasicBlock{ID: 0, Next: NoBlock, Elems: []Elem{
				instr("LOAD_CONST", ConstArgument{Value: 1}),
				instr("LOAD_CONST", ConstArgument{Value: 2}),
				instr("BINARY_OP", BinaryOpArgument{Op: BinaryAdd}),
				instr("LOAD_CONST", ConstArgument{Value: 3}),
				instr("BINARY_OP", BinaryOpArgument{Op: BinaryAdd}),
				instr("RETURN_VALUE", nil),
			}}
			cfg := &CFG{Header: Header{Version: pyver.V311}, Entry: 0, Blocks: []*BasicBlock{block}}

			depth, err := computeStackSize(tbl, cfg, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(depth).To(Equal(2))
		})
	})

	Context("checkUnderflow disabled", func() {
		It("tolerates a block that pops more than it was seeded with", func() {
			block := &BasicBlock{ID: 0, Next: NoBlock, Elems: []Elem{
				instr("POP_TOP", nil),
				instr("LOAD_CONST", ConstArgument{Value: nil}),
				instr("RETURN_VALUE", nil),
			}}
			cfg := &CFG{Header: Header{Version: pyver.V311}, Entry: 0, Blocks: []*BasicBlock{block}}

			_, err := computeStackSize(tbl, cfg, false)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
