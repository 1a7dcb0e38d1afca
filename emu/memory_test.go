package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("Memory", func() {
	var mem *emu.Memory

	BeforeEach(func() {
		mem = emu.NewMemory()
	})

	It("should read zero from untouched locations", func() {
		Expect(mem.Read32(0x1000)).To(Equal(uint32(0)))
		Expect(mem.Read8(0xFFFFFFFF)).To(Equal(uint8(0)))
	})

	It("should store and load words little-endian", func() {
		mem.Write32(0x100, 0x12345678)
		Expect(mem.Read8(0x100)).To(Equal(uint8(0x78)))
		Expect(mem.Read8(0x103)).To(Equal(uint8(0x12)))
		Expect(mem.Read16(0x100)).To(Equal(uint16(0x5678)))
		Expect(mem.Read32(0x100)).To(Equal(uint32(0x12345678)))
	})

	It("should handle accesses spanning page boundaries", func() {
		mem.Write32(4094, 0xAABBCCDD)
		Expect(mem.Read32(4094)).To(Equal(uint32(0xAABBCCDD)))
	})

	Describe("Write32Masked", func() {
		It("should touch only the selected byte lanes", func() {
			mem.Write32(0x200, 0x11223344)

			mem.Write32Masked(0x200, 0xAABBCCDD, 0b0101)
			Expect(mem.Read32(0x200)).To(Equal(uint32(0x11BB33DD)))
		})

		It("should write all lanes with a full mask", func() {
			mem.Write32Masked(0x200, 0xCAFEBABE, 0b1111)
			Expect(mem.Read32(0x200)).To(Equal(uint32(0xCAFEBABE)))
		})
	})

	It("should load byte slices", func() {
		mem.LoadBytes(0x300, []byte{1, 2, 3, 4})
		Expect(mem.Read32(0x300)).To(Equal(uint32(0x04030201)))
	})

	It("should drop contents on reset", func() {
		mem.Write32(0x400, 42)
		mem.Reset()
		Expect(mem.Read32(0x400)).To(Equal(uint32(0)))
	})
})
