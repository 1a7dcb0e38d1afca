package bus_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/bus"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/latency"
)

const ioBase = uint32(1) << bus.DefaultIOBit

var _ = Describe("Bus", func() {
	var (
		mem *emu.Memory
		b   *bus.Bus
	)

	BeforeEach(func() {
		mem = emu.NewMemory()
		b = bus.New(mem)
	})

	Describe("RAM reads", func() {
		It("should deliver data on the tick after the strobe with zero waits", func() {
			mem.Write32(0x100, 0xCAFEBABE)

			b.Read(0x100)
			Expect(b.ReadBusy()).To(BeTrue())

			b.Tick()
			Expect(b.ReadBusy()).To(BeFalse())
			Expect(b.ReadData()).To(Equal(uint32(0xCAFEBABE)))
		})

		It("should hold busy for each configured wait state", func() {
			config := latency.DefaultConfig()
			config.RAMReadWait = 3
			b = bus.New(mem, bus.WithConfig(config))
			mem.Write32(0x100, 42)

			b.Read(0x100)
			for i := 0; i < 4; i++ {
				Expect(b.ReadBusy()).To(BeTrue())
				b.Tick()
			}
			Expect(b.ReadBusy()).To(BeFalse())
			Expect(b.ReadData()).To(Equal(uint32(42)))
		})

		It("should ignore the low two address bits", func() {
			mem.Write32(0x100, 0x11223344)

			b.Read(0x102)
			b.Tick()
			Expect(b.ReadData()).To(Equal(uint32(0x11223344)))
		})

		It("should decode only the low address bits", func() {
			mem.Write32(0x100, 99)

			b.Read(0xFF000100)
			b.Tick()
			Expect(b.ReadData()).To(Equal(uint32(99)))
		})
	})

	Describe("RAM writes", func() {
		It("should apply the byte-lane mask", func() {
			mem.Write32(0x200, 0x11223344)

			b.Write(0x200, 0xAABBCCDD, 0b0011)
			Expect(mem.Read32(0x200)).To(Equal(uint32(0x1122CCDD)))
		})

		It("should complete on the tick after the strobe with zero waits", func() {
			b.Write(0x200, 1, 0b1111)
			Expect(b.WriteBusy()).To(BeTrue())
			b.Tick()
			Expect(b.WriteBusy()).To(BeFalse())
		})
	})

	Describe("IO region", func() {
		It("should classify addresses by the IO bit", func() {
			Expect(b.IsIO(0x100)).To(BeFalse())
			Expect(b.IsIO(ioBase)).To(BeTrue())
			Expect(b.IsIO(ioBase | 0x10)).To(BeTrue())
		})

		It("should dispatch stores to the mapped device", func() {
			var out bytes.Buffer
			b.Map(ioBase+bus.ConsoleWindow, 4, bus.NewConsole(&out))

			b.Write(ioBase+bus.ConsoleWindow, 'A', 0b0001)
			Expect(out.String()).To(Equal("A"))
		})

		It("should hold write-busy for the configured IO wait states", func() {
			b.Map(ioBase+bus.ConsoleWindow, 4, bus.NewConsole(nil))

			// Default IO write wait is one state.
			b.Write(ioBase+bus.ConsoleWindow, 'A', 0b0001)
			Expect(b.WriteBusy()).To(BeTrue())
			b.Tick()
			Expect(b.WriteBusy()).To(BeTrue())
			b.Tick()
			Expect(b.WriteBusy()).To(BeFalse())
		})

		It("should fall back to RAM for unmapped IO addresses", func() {
			b.Write(ioBase+0x40, 7, 0b1111)
			b.Read(ioBase + 0x40)
			for b.ReadBusy() {
				b.Tick()
			}
			Expect(b.ReadData()).To(Equal(uint32(7)))
		})
	})

	It("should clear in-flight transactions on reset", func() {
		config := latency.DefaultConfig()
		config.RAMReadWait = 10
		b = bus.New(mem, bus.WithConfig(config))

		b.Read(0x100)
		Expect(b.ReadBusy()).To(BeTrue())

		b.Reset()
		Expect(b.ReadBusy()).To(BeFalse())
		Expect(b.WriteBusy()).To(BeFalse())
	})
})

var _ = Describe("Console", func() {
	It("should emit the byte on the masked lane", func() {
		var out bytes.Buffer
		c := bus.NewConsole(&out)

		c.Write32(0, uint32('X')<<8, 0b0010)
		Expect(out.String()).To(Equal("X"))
	})
})

var _ = Describe("Halt", func() {
	It("should latch the exit code of the halt store", func() {
		h := bus.NewHalt()
		Expect(h.Halted()).To(BeFalse())
		Expect(h.Read32(0)).To(Equal(uint32(0)))

		h.Write32(0, 15, 0b1111)
		Expect(h.Halted()).To(BeTrue())
		Expect(h.ExitCode()).To(Equal(uint32(15)))
		Expect(h.Read32(0)).To(Equal(uint32(1)))

		h.Reset()
		Expect(h.Halted()).To(BeFalse())
	})
})
