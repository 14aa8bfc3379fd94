// Command cairo-vm runs a compiled Cairo program and optionally dumps
// its relocated trace and memory.
package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/runners"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
	"github.com/spf13/cobra"
)

// Exit codes, one per §7 error category this command can surface.
const (
	exitSuccess = 0
	exitLoad    = 1
	exitLayout  = 2
	exitRuntime = 3
	exitEndRun  = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		layoutName string
		proofMode  bool
		traceFile  string
		memoryFile string
		entrypoint string
		printOut   bool
	)

	cmd := &cobra.Command{
		Use:           "cairo-vm <program.json>",
		Short:         "Run a compiled Cairo program",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(args[0], layoutName, proofMode, traceFile, memoryFile, entrypoint, printOut)
		},
	}
	cmd.Flags().StringVar(&layoutName, "layout", "plain", "named builtin layout")
	cmd.Flags().BoolVar(&proofMode, "proof_mode", false, "require end-state alignment for proving")
	cmd.Flags().StringVar(&traceFile, "trace_file", "", "write the relocated trace to this path")
	cmd.Flags().StringVar(&memoryFile, "memory_file", "", "write relocated memory to this path")
	cmd.Flags().StringVar(&entrypoint, "entrypoint", "main", "identifier to start execution from")
	cmd.Flags().BoolVar(&printOut, "print-output", false, "print the output builtin segment to stdout")

	if err := cmd.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return exitSuccess
}

func runProgram(path, layoutName string, proofMode bool, traceFile, memoryFile, entrypoint string, printOutput bool) error {
	program, startOffset, err := runners.LoadProgram(path, entrypoint)
	if err != nil {
		return err
	}

	runner, err := runners.NewCairoRunner(*program, layoutName)
	if err != nil {
		return err
	}

	endPtr, err := runner.Initialize()
	if err != nil {
		return err
	}
	pc, err := runner.ProgramBase.AddUint(startOffset)
	if err != nil {
		return err
	}
	runner.Vm.RunContext.Pc = pc

	if err := runner.Run(endPtr); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	if err := runner.EndRun(runner.Vm.RunContext.Ap, proofMode); err != nil {
		return fmt.Errorf("end run: %w", err)
	}

	if traceFile != "" {
		if err := writeTrace(traceFile, runner); err != nil {
			return err
		}
	}
	if memoryFile != "" {
		if err := writeMemory(memoryFile, runner); err != nil {
			return err
		}
	}
	if printOutput {
		printOutputSegment(runner)
	}

	return nil
}

func writeTrace(path string, runner *runners.CairoRunner) error {
	trace, err := runner.Vm.GetRelocatedTrace()
	if err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	defer f.Close()

	for _, entry := range trace {
		pc, err := entry.Pc.ToU64()
		if err != nil {
			return err
		}
		ap, err := entry.Ap.ToU64()
		if err != nil {
			return err
		}
		fp, err := entry.Fp.ToU64()
		if err != nil {
			return err
		}
		for _, v := range []uint64{pc, ap, fp} {
			if err := binary.Write(f, binary.LittleEndian, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeMemory(path string, runner *runners.CairoRunner) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write memory: %w", err)
	}
	defer f.Close()

	for addr, val := range runner.Vm.RelocatedMemory {
		if err := binary.Write(f, binary.LittleEndian, uint64(addr)); err != nil {
			return err
		}
		bytes := val.ToBytesLE()
		if _, err := f.Write(bytes[:]); err != nil {
			return err
		}
	}
	return nil
}

func printOutputSegment(runner *runners.CairoRunner) {
	for i := range runner.Vm.BuiltinRunners {
		if runner.Vm.BuiltinRunners[i].Name() != "output" {
			continue
		}
		base := runner.Vm.BuiltinRunners[i].Base()
		size, ok := runner.Vm.Segments.GetSegmentUsedSize(base.SegmentIndex)
		if !ok {
			return
		}
		for offset := uint(0); offset < size; offset++ {
			addr := memory.NewRelocatable(base.SegmentIndex, offset)
			v, err := runner.Vm.Segments.Memory.GetFelt(addr)
			if err != nil {
				log.Printf("output segment read %s: %v", addr, err)
				continue
			}
			fmt.Println(v.String())
		}
	}
}

func exitCodeFor(err error) int {
	switch {
	case vmerrors.IsLoadError(err):
		log.Println(err)
		return exitLoad
	case vmerrors.IsLayoutError(err):
		log.Println(err)
		return exitLayout
	case vmerrors.IsEndRunError(err):
		log.Println(err)
		return exitEndRun
	default:
		log.Println(err)
		return exitRuntime
	}
}
