// Command repl is an interactive assembly shell: it reads one line of
// 68000 assembly at a time, executes it against a persistent CPU, and
// prints the resulting state.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"m68kemu/asm"
	"m68kemu/cpu"
	"m68kemu/mem"
)

const memorySize = 32 * 1024

func main() {
	root := &cobra.Command{
		Use:   "repl",
		Short: "Interactive 68000 assembly REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			loop()
			return nil
		},
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loop() {
	fmt.Println("Welcome to the Motorola 68000 Assembly REPL!")
	c := cpu.New(mem.New(memorySize))
	fmt.Println(c.Regs.String())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()

		instr, size, err := asm.Parse(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parsing Error: %v\n", err)
			continue
		}

		if err := instr.Execute(c.Regs, c.Mem, size); err != nil {
			fmt.Fprintf(os.Stderr, "CPU Error: %v\n", err)
			continue
		}
		fmt.Println(c.Regs.String())
	}
}
