// Package asm parses a single line of 68000 assembly text into an
// Instruction the core can execute, for the REPL's external-collaborator
// role. It is a thin text front end over ea and isa; it never touches
// memory or registers itself.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"m68kemu/ea"
	"m68kemu/isa"
	"m68kemu/register"
	"m68kemu/value"
)

// ParseError reports any failure turning a line of text into an
// Instruction: an unknown mnemonic, malformed operand, unknown register,
// invalid number (a hexadecimal number wider than 32 bits counts as
// invalid), an unexpected token, or a size disagreement between operands.
// Numbers are not checked against the width of the field they fill, and a
// decimal number is truncated to its low 32 bits.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("assembly parse error: %s", e.Reason)
}

func errf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// Parse turns one line of assembly into an Instruction and its operand
// size. Unlike decode.Decode it returns no byte count: a line of text has
// no encoded length.
func Parse(line string) (isa.Instruction, value.OperandSize, error) {
	lower := strings.ToLower(strings.TrimSpace(line))
	if lower == "" {
		return nil, 0, errf("empty line")
	}

	mnemonic, rest, hasRest := strings.Cut(lower, " ")
	mnemonic = strings.TrimSpace(mnemonic)
	rest = strings.TrimSpace(rest)

	if mnemonic == "nop" {
		return isa.NoOp{}, value.Long, nil
	}
	if !hasRest || rest == "" {
		return nil, 0, errf("instruction %q requires operands", mnemonic)
	}

	if mnemonic == "jmp" {
		addr, size, err := parseOperand(rest)
		if err != nil {
			return nil, 0, err
		}
		s := value.Long
		if size != nil {
			s = *size
		}
		return isa.JumpTo{Address: addr}, s, nil
	}

	src, dest, size, err := parseSourceDest(rest)
	if err != nil {
		return nil, 0, err
	}

	switch mnemonic {
	case "move", "movea":
		return isa.Move{Src: src, Dest: dest}, size, nil
	case "add", "addi", "adda", "addq":
		return isa.Add{Src: src, Dest: dest}, size, nil
	case "sub", "subi", "suba":
		return isa.Subtract{Src: src, Dest: dest}, size, nil
	case "mulu":
		return isa.MultiplyUnsigned{Src: src, Dest: dest}, size, nil
	case "and", "andi":
		return isa.And{Src: src, Dest: dest}, size, nil
	case "or", "ori":
		return isa.InclusiveOr{Src: src, Dest: dest}, size, nil
	case "eor", "eori":
		return isa.ExclusiveOr{Src: src, Dest: dest}, size, nil
	case "rol", "roxl":
		return isa.RotateLeft{ToRotate: src, RotateAmount: dest}, size, nil
	case "chk":
		return isa.BoundsCheck{Bound: src, Value: dest}, size, nil
	default:
		return nil, 0, errf("unknown instruction %q", mnemonic)
	}
}

// parseSourceDest splits "src, dest" at the top-level comma (one not
// nested inside parentheses, since some addressing modes embed commas of
// their own) and parses each side as an operand.
func parseSourceDest(operands string) (ea.EffectiveAddress, ea.EffectiveAddress, value.OperandSize, error) {
	depth := 0
	splitAt := -1
	for i, r := range operands {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth == 0 {
				return ea.EffectiveAddress{}, ea.EffectiveAddress{}, 0, errf("unexpected %q", r)
			}
			depth--
		case ',':
			if depth == 0 {
				splitAt = i
			}
		}
		if splitAt != -1 {
			break
		}
	}
	if splitAt == -1 {
		return ea.EffectiveAddress{}, ea.EffectiveAddress{}, 0, errf("missing operand in %q", operands)
	}

	srcText := strings.TrimSpace(operands[:splitAt])
	destText := strings.TrimSpace(strings.TrimLeft(operands[splitAt+1:], " ,"))

	src, srcSize, err := parseOperand(srcText)
	if err != nil {
		return ea.EffectiveAddress{}, ea.EffectiveAddress{}, 0, err
	}
	dest, destSize, err := parseOperand(destText)
	if err != nil {
		return ea.EffectiveAddress{}, ea.EffectiveAddress{}, 0, err
	}

	if srcSize != nil && destSize != nil && *srcSize != *destSize {
		return ea.EffectiveAddress{}, ea.EffectiveAddress{}, 0, errf(
			"operand size mismatch: %s vs %s", srcSize.String(), destSize.String())
	}

	size := value.Long
	if srcSize != nil {
		size = *srcSize
	} else if destSize != nil {
		size = *destSize
	}
	return src, dest, size, nil
}

// parseOperand recognizes register direct, immediate, absolute,
// register-indirect (with optional post-increment/pre-decrement),
// displacement, indexed, and the two memory-indirect index forms. The
// returned size is nil when the text carried no `.b/.w/.l` suffix.
func parseOperand(text string) (ea.EffectiveAddress, *value.OperandSize, error) {
	if text == "" {
		return ea.EffectiveAddress{}, nil, errf("empty operand")
	}

	switch text[0] {
	case '#':
		n, err := parseNumber(text[1:])
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		return ea.ImmediateValue(n), nil, nil

	case '(', '-':
		return parseIndirectOrAbsolute(text)

	default:
		reg, size, err := parseRegister(text)
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		return ea.Direct(reg), size, nil
	}
}

func parseIndirectOrAbsolute(text string) (ea.EffectiveAddress, *value.OperandSize, error) {
	if !strings.Contains(text, ",") {
		body, size, err := stripSizeSuffix(text)
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(body, "("), ")")
		// Absolute: "($HEX)" or "(123)", no register and no trailing +.
		if strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")") &&
			!strings.HasSuffix(inner, "+") {
			if n, numErr := parseNumber(inner); numErr == nil {
				return ea.AbsoluteAddr(n), size, nil
			}
		}

		// Register indirect, optionally with post-increment or pre-decrement.
		predec := strings.HasPrefix(body, "-(")
		body = strings.TrimPrefix(body, "-")
		postinc := strings.HasSuffix(body, ")+")
		body = strings.TrimSuffix(body, "+")
		inner = strings.TrimSuffix(strings.TrimPrefix(body, "("), ")")

		reg, _, err := parseRegister(inner)
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		if reg.Kind() != register.Address {
			return ea.EffectiveAddress{}, nil, errf("register indirect requires an address register, got %q", inner)
		}
		switch {
		case predec && postinc:
			return ea.EffectiveAddress{}, nil, errf("%q cannot be both post-increment and pre-decrement", text)
		case postinc:
			return ea.PostIncrement(reg), size, nil
		case predec:
			return ea.PreDecrement(reg), size, nil
		default:
			return ea.Indirect(reg), size, nil
		}
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
	if strings.HasPrefix(inner, "[") {
		return parseMemoryIndexed(text)
	}

	parts := splitTopLevel(inner)
	switch len(parts) {
	case 2:
		disp, err := parseNumber(strings.TrimSpace(parts[0]))
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		reg, size, err := parseRegister(strings.TrimSpace(parts[1]))
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		if reg.Kind() == register.ProgramCounter {
			return ea.PCWithDisplacement(int32(disp)), size, nil
		}
		if reg.Kind() != register.Address {
			return ea.EffectiveAddress{}, nil, errf("displacement addressing requires An or pc, got %q", parts[1])
		}
		return ea.WithDisplacement(reg, int32(disp)), size, nil

	case 3:
		disp, err := parseNumber(strings.TrimSpace(parts[0]))
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		base, _, err := parseRegister(strings.TrimSpace(parts[1]))
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		index, size, err := parseRegister(strings.TrimSpace(parts[2]))
		if err != nil {
			return ea.EffectiveAddress{}, nil, err
		}
		if base.Kind() == register.ProgramCounter {
			return ea.PCIndexed(index, int32(disp)), size, nil
		}
		if base.Kind() != register.Address {
			return ea.EffectiveAddress{}, nil, errf("indexed addressing requires An or pc, got %q", parts[1])
		}
		return ea.Indexed(base, index, int32(disp)), size, nil

	default:
		return ea.EffectiveAddress{}, nil, errf("unrecognized operand %q", text)
	}
}

// parseMemoryIndexed handles the two 68020 memory-indirect forms:
//
//	([bd, An, Xi.sz], od)   -- preindexed
//	([bd, An], Xi.sz, od)   -- postindexed
func parseMemoryIndexed(text string) (ea.EffectiveAddress, *value.OperandSize, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
	closeIdx := strings.Index(inner, "]")
	if !strings.HasPrefix(inner, "[") || closeIdx < 0 {
		return ea.EffectiveAddress{}, nil, errf("malformed memory-indirect operand %q", text)
	}
	bracket := inner[1:closeIdx]
	remainder := strings.TrimLeft(inner[closeIdx+1:], " ,")

	bracketParts := splitTopLevel(bracket)
	remainderParts := splitTopLevel(remainder)

	preindexed := len(bracketParts) == 3
	if len(bracketParts) < 2 || len(bracketParts) > 3 {
		return ea.EffectiveAddress{}, nil, errf("malformed memory-indirect bracket %q", bracket)
	}

	bd, err := parseNumber(strings.TrimSpace(bracketParts[0]))
	if err != nil {
		return ea.EffectiveAddress{}, nil, err
	}
	base, _, err := parseRegister(strings.TrimSpace(bracketParts[1]))
	if err != nil {
		return ea.EffectiveAddress{}, nil, err
	}

	var indexText string
	var odText string
	if preindexed {
		indexText = bracketParts[2]
		if len(remainderParts) != 1 {
			return ea.EffectiveAddress{}, nil, errf("preindexed form expects a single outer displacement, got %q", remainder)
		}
		odText = remainderParts[0]
	} else {
		if len(remainderParts) != 2 {
			return ea.EffectiveAddress{}, nil, errf("postindexed form expects Xi.sz, od, got %q", remainder)
		}
		indexText = remainderParts[0]
		odText = remainderParts[1]
	}

	index, size, err := parseRegister(strings.TrimSpace(indexText))
	if err != nil {
		return ea.EffectiveAddress{}, nil, err
	}
	od, err := parseNumber(strings.TrimSpace(odText))
	if err != nil {
		return ea.EffectiveAddress{}, nil, err
	}

	switch {
	case preindexed && base.Kind() == register.ProgramCounter:
		return ea.PCPreIndexed(index, int32(bd), int32(od)), size, nil
	case preindexed:
		return ea.PreIndexed(base, index, int32(bd), int32(od)), size, nil
	case base.Kind() == register.ProgramCounter:
		return ea.PCPostIndexed(index, int32(bd), int32(od)), size, nil
	default:
		return ea.PostIndexed(base, index, int32(bd), int32(od)), size, nil
	}
}

// splitTopLevel splits s on commas that are not nested inside brackets.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

func stripSizeSuffix(s string) (string, *value.OperandSize, error) {
	var size value.OperandSize
	switch {
	case strings.HasSuffix(s, ".b"):
		size = value.Byte
	case strings.HasSuffix(s, ".w"):
		size = value.Word
	case strings.HasSuffix(s, ".l"):
		size = value.Long
	default:
		return s, nil, nil
	}
	return s[:len(s)-2], &size, nil
}

func parseRegister(text string) (register.Selector, *value.OperandSize, error) {
	body, size, err := stripSizeSuffix(text)
	if err != nil {
		return register.Selector{}, nil, err
	}
	switch body {
	case "d0":
		return register.D(0), size, nil
	case "d1":
		return register.D(1), size, nil
	case "d2":
		return register.D(2), size, nil
	case "d3":
		return register.D(3), size, nil
	case "d4":
		return register.D(4), size, nil
	case "d5":
		return register.D(5), size, nil
	case "d6":
		return register.D(6), size, nil
	case "d7":
		return register.D(7), size, nil
	case "a0":
		return register.A(0), size, nil
	case "a1":
		return register.A(1), size, nil
	case "a2":
		return register.A(2), size, nil
	case "a3":
		return register.A(3), size, nil
	case "a4":
		return register.A(4), size, nil
	case "a5":
		return register.A(5), size, nil
	case "a6":
		return register.A(6), size, nil
	case "a7", "sp":
		return register.SP, size, nil
	case "pc":
		return register.PC, size, nil
	default:
		return register.Selector{}, nil, errf("unknown register %q", body)
	}
}

func parseNumber(text string) (uint32, error) {
	if hex, ok := strings.CutPrefix(text, "$"); ok {
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, errf("invalid hex number %q: %v", text, err)
		}
		return uint32(n), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errf("invalid number %q: %v", text, err)
	}
	return uint32(n), nil
}
