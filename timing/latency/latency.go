// Package latency provides bus wait-state configuration for the
// multi-cycle core simulation.
//
// A wait state is one extra tick during which the bus holds its busy
// signal asserted before a read delivers data or a write completes.
// Zero wait states means data is available on the tick after the
// address and strobe are driven, which is the minimum the bus contract
// allows.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds wait-state counts for the memory bus regions.
type Config struct {
	// RAMReadWait is the number of busy ticks for reads from ordinary
	// memory (instruction fetches and data loads). Default: 0.
	RAMReadWait uint64 `json:"ram_read_wait"`

	// RAMWriteWait is the number of busy ticks for writes to ordinary
	// memory. The core never polls these, so this only matters for
	// back-to-back bus masters in a larger system. Default: 0.
	RAMWriteWait uint64 `json:"ram_write_wait"`

	// IOReadWait is the number of busy ticks for reads from the
	// IO-mapped region. Default: 1.
	IOReadWait uint64 `json:"io_read_wait"`

	// IOWriteWait is the number of busy ticks an IO-mapped store holds
	// write-busy before the device reports completion. Default: 1.
	IOWriteWait uint64 `json:"io_write_wait"`
}

// DefaultConfig returns the default wait-state configuration:
// zero-wait RAM and single-wait IO devices.
func DefaultConfig() *Config {
	return &Config{
		RAMReadWait:  0,
		RAMWriteWait: 0,
		IOReadWait:   1,
		IOWriteWait:  1,
	}
}

// LoadConfig reads a wait-state configuration from a JSON file. Fields
// absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// ReadWait returns the read wait-state count for an address class.
func (c *Config) ReadWait(isIO bool) uint64 {
	if isIO {
		return c.IOReadWait
	}
	return c.RAMReadWait
}

// WriteWait returns the write wait-state count for an address class.
func (c *Config) WriteWait(isIO bool) uint64 {
	if isIO {
		return c.IOWriteWait
	}
	return c.RAMWriteWait
}
