// Package main provides the rv32sim command: a tick-accurate simulator
// for a multi-cycle RV32I core behind an asynchronous memory bus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/timing/latency"
	"github.com/sarchlab/rv32sim/trace"
)

var (
	rawImage   bool
	rawBase    uint32
	configPath string
	useCache   bool
	tracePath  string
	maxTicks   uint64
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "rv32sim <program>",
	Short: "Tick-accurate simulator for a multi-cycle RV32I core",
	Long: `rv32sim executes RV32I programs on a tick-accurate model of a ` +
		`multi-cycle core: one instruction in flight at a time, with bus ` +
		`wait states, a serial shifter, and IO-mapped console and halt ` +
		`devices. Programs are RV32 ELF binaries or raw images (--raw).`,
	Args: cobra.ExactArgs(1),
	RunE: run,

	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().BoolVar(&rawImage, "raw", false,
		"treat the program as a flat binary image instead of ELF")
	rootCmd.Flags().Uint32Var(&rawBase, "base", 0,
		"load address and entry point for raw images")
	rootCmd.Flags().StringVar(&configPath, "config", "",
		"path to a wait-state configuration JSON file")
	rootCmd.Flags().BoolVar(&useCache, "cache", false,
		"front RAM with the L1 cache model")
	rootCmd.Flags().StringVar(&tracePath, "trace", "",
		"record retired instructions into a SQLite database at this path")
	rootCmd.Flags().Uint64Var(&maxTicks, "max-ticks", 0,
		"stop after this many ticks (0 means no limit)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"print simulation statistics")
}

func run(cmd *cobra.Command, args []string) error {
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}

	opts := []core.MachineOption{
		core.WithConsoleWriter(os.Stdout),
	}

	if configPath != "" {
		config, err := latency.LoadConfig(configPath)
		if err != nil {
			return err
		}
		opts = append(opts, core.WithTimingConfig(config))
	}

	var recorder *trace.Recorder
	if tracePath != "" {
		recorder, err = trace.NewRecorder(tracePath)
		if err != nil {
			return err
		}
		defer func() { _ = recorder.Close() }()

		opts = append(opts, core.WithRetireHook(func(info core.RetireInfo) {
			recorder.Record(trace.Record{
				Tick:    info.Tick,
				PC:      info.PC,
				Instr:   info.Instr,
				RdWrite: info.RdWrite,
				Rd:      info.Rd,
				RdValue: info.RdValue,
			})
		}))
	}

	if useCache {
		opts = append(opts, core.WithCache(cache.DefaultConfig()))
	}

	machine := core.NewMachine(opts...)

	for _, seg := range prog.Segments {
		machine.Memory.LoadBytes(seg.VirtAddr, seg.Data)
	}
	machine.Core.SetPC(prog.EntryPoint)

	exitCode, halted := machine.Run(maxTicks)

	if verbose {
		printStats(machine, halted)
	}

	if !halted {
		return fmt.Errorf("tick limit reached after %d ticks", maxTicks)
	}

	if exitCode != 0 {
		os.Exit(int(exitCode))
	}
	return nil
}

func loadProgram(path string) (*loader.Program, error) {
	if rawImage {
		return loader.LoadRaw(path, rawBase)
	}
	return loader.Load(path)
}

func printStats(machine *core.Machine, halted bool) {
	stats := machine.Stats()
	fmt.Fprintf(os.Stderr, "\nticks:           %d\n", stats.Ticks)
	fmt.Fprintf(os.Stderr, "instructions:    %d\n", stats.Instructions)
	fmt.Fprintf(os.Stderr, "CPI:             %.2f\n", stats.CPI())
	fmt.Fprintf(os.Stderr, "fetch wait:      %d\n", stats.FetchWaitTicks)
	fmt.Fprintf(os.Stderr, "data/ALU wait:   %d\n", stats.DataWaitTicks)
	fmt.Fprintf(os.Stderr, "IO store wait:   %d\n", stats.IOWaitTicks)
	fmt.Fprintf(os.Stderr, "halted:          %v\n", halted)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
