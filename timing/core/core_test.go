package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/core"
)

// stubPort scripts the bus seen by the core: queued read data, a fixed
// number of busy polls per transaction, and a record of every strobe.
type stubPort struct {
	readAddrs []uint32
	writes    []stubWrite

	readQueue    []uint32
	readData     uint32
	busyPerRead  int
	busyPolls    int
	busyPerWrite int
	wbusyPolls   int
}

type stubWrite struct {
	addr uint32
	data uint32
	mask uint8
}

func (p *stubPort) Read(addr uint32) {
	p.readAddrs = append(p.readAddrs, addr)
	if len(p.readQueue) > 0 {
		p.readData = p.readQueue[0]
		p.readQueue = p.readQueue[1:]
	}
	p.busyPolls = p.busyPerRead
}

func (p *stubPort) Write(addr uint32, data uint32, mask uint8) {
	p.writes = append(p.writes, stubWrite{addr: addr, data: data, mask: mask})
	p.wbusyPolls = p.busyPerWrite
}

func (p *stubPort) ReadData() uint32 {
	return p.readData
}

func (p *stubPort) ReadBusy() bool {
	if p.busyPolls > 0 {
		p.busyPolls--
		return true
	}
	return false
}

func (p *stubPort) WriteBusy() bool {
	if p.wbusyPolls > 0 {
		p.wbusyPolls--
		return true
	}
	return false
}

var _ = Describe("Core", func() {
	var (
		regFile *emu.RegFile
		alu     *emu.ALU
		port    *stubPort
		c       *core.Core
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		alu = emu.NewALU()
		port = &stubPort{}
		c = core.NewCore(regFile, alu, port)
	})

	// tick clocks the datapath the way the machine does: collaborators
	// first, core last.
	tick := func() {
		alu.Tick()
		regFile.Tick()
		c.Tick()
	}

	It("should start in Initial and issue the first fetch from PC", func() {
		c.SetPC(0x80)

		tick()
		Expect(c.State()).To(Equal(core.StateFetchInstr))

		tick()
		Expect(c.State()).To(Equal(core.StateWaitInstr))
		Expect(port.readAddrs).To(Equal([]uint32{0x80}))
	})

	Describe("fetch wait states", func() {
		It("should latch the instruction on the first non-busy tick", func() {
			port.readQueue = []uint32{0x00A00093} // addi x1, x0, 10

			tick() // Initial
			tick() // FetchInstr
			tick() // WaitInstr, not busy
			Expect(c.State()).To(Equal(core.StateFetchRegs))
			Expect(c.Instr()).To(Equal(uint32(0x00A00093)))
		})

		It("should stay in WaitInstr for each busy poll", func() {
			port.readQueue = []uint32{0x00A00093}
			port.busyPerRead = 3

			tick() // Initial
			tick() // FetchInstr
			for i := 0; i < 3; i++ {
				tick()
				Expect(c.State()).To(Equal(core.StateWaitInstr))
			}
			tick()
			Expect(c.State()).To(Equal(core.StateFetchRegs))
			Expect(c.Stats().FetchWaitTicks).To(Equal(uint64(3)))
		})
	})

	Describe("reset line", func() {
		It("should force Initial with PC and address register at zero", func() {
			c.SetPC(0x200)
			port.readQueue = []uint32{0x00A00093}
			tick()
			tick()
			tick() // mid-instruction, FetchRegs

			c.SetReset(true)
			tick()
			Expect(c.State()).To(Equal(core.StateInitial))
			Expect(c.PC()).To(Equal(uint32(0)))
			Expect(c.AddrReg()).To(Equal(uint32(0)))

			// Held reset pins the machine in Initial.
			tick()
			tick()
			Expect(c.State()).To(Equal(core.StateInitial))
		})

		It("should fetch from address zero after release", func() {
			c.SetPC(0x200)
			c.SetReset(true)
			tick()
			c.SetReset(false)

			tick()
			Expect(c.State()).To(Equal(core.StateFetchInstr))
			tick()
			Expect(port.readAddrs).To(Equal([]uint32{0}))
		})

		It("should suppress the write-back of the aborted instruction", func() {
			port.readQueue = []uint32{0x00A00093} // addi x1, x0, 10
			tick()
			tick()
			tick()
			tick() // FetchRegs done, Execute is next

			c.SetReset(true)
			tick()
			Expect(regFile.Read(1)).To(Equal(uint32(0)))
			Expect(c.Stats().Instructions).To(Equal(uint64(0)))
		})
	})

	Describe("retire hook", func() {
		It("should fire once per completed instruction", func() {
			var retired []core.RetireInfo
			c = core.NewCore(regFile, alu, port,
				core.WithCoreRetireHook(func(info core.RetireInfo) {
					retired = append(retired, info)
				}))
			port.readQueue = []uint32{0x00A00093} // addi x1, x0, 10

			for i := 0; i < 5; i++ {
				tick()
			}
			Expect(retired).To(HaveLen(1))
			Expect(retired[0].RdWrite).To(BeTrue())
			Expect(retired[0].RdValue).To(Equal(uint32(10)))
		})
	})

	Describe("store path", func() {
		It("should stage aligned data in Execute and strobe it in Store", func() {
			regFile.Write(2, 0x100)
			regFile.Write(1, 0xAB)
			port.readQueue = []uint32{0x001101A3} // sb x1, 3(x2)

			for i := 0; i < 6; i++ {
				tick()
			}
			Expect(port.writes).To(HaveLen(1))
			Expect(port.writes[0].addr).To(Equal(uint32(0x103)))
			Expect(port.writes[0].data).To(Equal(uint32(0xAB000000)))
			Expect(port.writes[0].mask).To(Equal(uint8(0b1000)))
			Expect(c.State()).To(Equal(core.StateFetchInstr))
		})

		It("should take the extra wait state for IO stores", func() {
			regFile.Write(3, uint32(core.IOBase))
			regFile.Write(1, 'A')
			port.readQueue = []uint32{0x0011A423} // sw x1, 8(x3)
			port.busyPerWrite = 1

			for i := 0; i < 6; i++ {
				tick()
			}
			Expect(c.State()).To(Equal(core.StateWaitIOStore))

			tick() // still write-busy
			Expect(c.State()).To(Equal(core.StateWaitIOStore))
			tick()
			Expect(c.State()).To(Equal(core.StateFetchInstr))
			Expect(c.Stats().IOWaitTicks).To(Equal(uint64(1)))
		})
	})
})
