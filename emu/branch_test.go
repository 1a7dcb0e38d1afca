package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Predicate", func() {
	It("should evaluate BEQ and BNE", func() {
		Expect(emu.Predicate(5, 5, insts.CondEQ)).To(BeTrue())
		Expect(emu.Predicate(5, 6, insts.CondEQ)).To(BeFalse())
		Expect(emu.Predicate(5, 6, insts.CondNE)).To(BeTrue())
		Expect(emu.Predicate(5, 5, insts.CondNE)).To(BeFalse())
	})

	It("should evaluate signed comparisons", func() {
		minusOne := uint32(0xFFFFFFFF)

		Expect(emu.Predicate(minusOne, 1, insts.CondLT)).To(BeTrue())
		Expect(emu.Predicate(1, minusOne, insts.CondLT)).To(BeFalse())
		Expect(emu.Predicate(1, minusOne, insts.CondGE)).To(BeTrue())
		Expect(emu.Predicate(minusOne, minusOne, insts.CondGE)).To(BeTrue())
	})

	It("should evaluate unsigned comparisons", func() {
		Expect(emu.Predicate(1, 0xFFFFFFFF, insts.CondLTU)).To(BeTrue())
		Expect(emu.Predicate(0xFFFFFFFF, 1, insts.CondLTU)).To(BeFalse())
		Expect(emu.Predicate(0xFFFFFFFF, 1, insts.CondGEU)).To(BeTrue())
	})

	It("should evaluate unknown selectors as not taken", func() {
		Expect(emu.Predicate(1, 1, 0b010)).To(BeFalse())
		Expect(emu.Predicate(1, 1, 0b011)).To(BeFalse())
	})
})
