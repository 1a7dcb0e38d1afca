package bus

import "io"

// Conventional device windows within the IO region. Offsets are
// relative to the IO region base (the address with only the IO bit
// set).
const (
	// ConsoleWindow is the console device word.
	ConsoleWindow = 0x08
	// HaltWindow is the machine-halt device word.
	HaltWindow = 0x10
)

// Console is a write-only character output device. Each store delivers
// its low byte to the configured writer. Reads return zero, matching a
// transmit-only UART data register.
type Console struct {
	w io.Writer
}

// NewConsole creates a console device writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Read32 returns zero; the console has no readable state.
func (c *Console) Read32(offset uint32) uint32 {
	return 0
}

// Write32 emits the low byte of the stored word.
func (c *Console) Write32(offset uint32, value uint32, mask uint8) {
	if c.w == nil {
		return
	}
	// Pick the lowest lane selected by the mask.
	for lane := uint8(0); lane < 4; lane++ {
		if mask&(1<<lane) != 0 {
			_, _ = c.w.Write([]byte{byte(value >> (lane * 8))})
			return
		}
	}
}

// Halt is a device whose write stops the machine. The stored word is
// reported as the exit code.
type Halt struct {
	halted   bool
	exitCode uint32
}

// NewHalt creates a halt device.
func NewHalt() *Halt {
	return &Halt{}
}

// Read32 returns 1 once the machine has halted, 0 before.
func (h *Halt) Read32(offset uint32) uint32 {
	if h.halted {
		return 1
	}
	return 0
}

// Write32 records the exit code and halts the machine.
func (h *Halt) Write32(offset uint32, value uint32, mask uint8) {
	h.halted = true
	h.exitCode = value
}

// Halted reports whether a halt store has been observed.
func (h *Halt) Halted() bool {
	return h.halted
}

// ExitCode returns the value of the halt store.
func (h *Halt) ExitCode() uint32 {
	return h.exitCode
}

// Reset clears the halt latch.
func (h *Halt) Reset() {
	h.halted = false
	h.exitCode = 0
}
