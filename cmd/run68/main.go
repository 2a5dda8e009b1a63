// Command run68 loads a raw 68000 binary image and executes it until the
// first error.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"m68kemu/cpu"
	"m68kemu/debug"
	"m68kemu/mem"
)

// memorySize is generous enough for any binary this runner is likely to
// load; the core places no upper bound on it.
const memorySize = 8 * 1024 * 1024

func main() {
	var verbose bool
	var debugTUI bool

	root := &cobra.Command{
		Use:   "run68 FILE",
		Short: "Executes a raw 68000 binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], verbose, debugTUI)
		},
	}
	root.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"print CPU state after each cycle, instead of only at start and end")
	root.Flags().BoolVar(&debugTUI, "debug", false,
		"open an interactive single-step inspector instead of running to completion")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(path string, verbose, debugTUI bool) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}

	m := mem.New(memorySize)
	c := cpu.New(m)

	if debugTUI {
		return debug.Run(c, image, 0)
	}

	if err := c.LoadImage(image); err != nil {
		return err
	}

	fmt.Println(c.Regs.String())

	runErr := c.Run(verbose)
	fmt.Println(c.Regs.String())
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
	return nil
}
