// Package debug provides an interactive terminal inspector for a running
// CPU: a memory window around the program counter, the full register
// file, and a dump of the most recently decoded instruction.
package debug

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"m68kemu/cpu"
	"m68kemu/isa"
)

const bytesPerRow = 16

type model struct {
	c       *cpu.CPU
	image   []byte
	offset  uint32
	prevPC  uint32
	lastIns isa.Instruction
	err     error
}

// Init loads the image into memory at offset and positions PC there.
func (m model) Init() tea.Cmd {
	if err := m.c.Mem.WriteBytes(m.offset, m.image); err != nil {
		m.err = err
		return tea.Quit
	}
	m.c.Regs.SetPC(m.offset)
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "j":
			m.prevPC = m.c.Regs.PC()
			instr, err := m.c.Step()
			if err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.lastIns = instr
		}
	}
	return m, nil
}

// renderRow renders one 16-byte row of memory, highlighting the byte the
// program counter currently points at.
func (m model) renderRow(start uint32) string {
	row, err := m.c.Mem.ReadBytes(start, bytesPerRow)
	if err != nil {
		return fmt.Sprintf("%08X | <out of range>", start)
	}
	s := fmt.Sprintf("%08X | ", start)
	pc := m.c.Regs.PC()
	for i, b := range row {
		if start+uint32(i) == pc {
			s += fmt.Sprintf("[%02X] ", b)
		} else {
			s += fmt.Sprintf(" %02X  ", b)
		}
	}
	return s
}

func (m model) memoryWindow() string {
	header := "address  | "
	for b := 0; b < bytesPerRow; b++ {
		header += fmt.Sprintf("  %01X  ", b)
	}
	rows := []string{header}

	base := (m.c.Regs.PC() / bytesPerRow) * bytesPerRow
	start := int64(base) - 2*bytesPerRow
	if start < 0 {
		start = 0
	}
	for i := 0; i < 5; i++ {
		rows = append(rows, m.renderRow(uint32(start)+uint32(i*bytesPerRow)))
	}
	return strings.Join(rows, "\n")
}

func (m model) status() string {
	return fmt.Sprintf("prev PC: %08X\n\n%s", m.prevPC, m.c.Regs.String())
}

func (m model) View() string {
	var decoded string
	if m.lastIns != nil {
		decoded = spew.Sdump(m.lastIns)
	} else {
		decoded = "(no instruction executed yet)"
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.memoryWindow(),
			"   ",
			m.status(),
		),
		"",
		decoded,
	)
}

// Run loads image into c's memory at offset and starts an interactive TUI
// driven by space/j to single-step and q to quit.
func Run(c *cpu.CPU, image []byte, offset uint32) error {
	finalModel, err := tea.NewProgram(model{c: c, image: image, offset: offset}).Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(model); ok && m.err != nil {
		return m.err
	}
	return nil
}
