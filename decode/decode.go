// Package decode turns a prefix of a 68000 machine-code image into an
// isa.Instruction, the operand size it runs at, and the number of bytes
// the instruction occupies. It never consults memory or registers; it is
// a pure function of the bytes it is handed.
package decode

import (
	"fmt"

	"m68kemu/ea"
	"m68kemu/isa"
	"m68kemu/mask"
	"m68kemu/register"
	"m68kemu/value"
)

// ParseError reports that the bytes could not be decoded: fewer than two
// bytes, a truncated extension word, or a size or addressing-mode field
// value that the matched opcode case does not accept. An opcode that no case
// recognizes is not an error; it decodes to isa.Unimplemented.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode: %s", e.Reason)
}

// Decode reads the instruction starting at the front of src and returns
// it together with its operand size and its length in bytes. src must
// hold at least the opcode word; a short read is a ParseError.
func Decode(src []byte) (isa.Instruction, value.OperandSize, int, error) {
	if len(src) < 2 {
		return nil, 0, 0, &ParseError{Reason: "fewer than 2 bytes available"}
	}
	opcode := uint16(src[0])<<8 | uint16(src[1])
	ext := src[2:]

	switch {
	case opcode == 0x4E71: // NOP
		return isa.NoOp{}, value.Long, 2, nil

	case opcode&0xFFC0 == 0x4EC0: // JMP
		mode, reg := eaFields(opcode)
		addr, n, err := decodeEA(mode, reg, value.Long, ext)
		if err != nil {
			return nil, 0, 0, err
		}
		return isa.JumpTo{Address: addr}, value.Long, 2 + n, nil

	case opcode&0xF1C0 == 0x4180: // CHK
		dn := (opcode >> 9) & 7
		mode, reg := eaFields(opcode)
		bound, n, err := decodeEA(mode, reg, value.Word, ext)
		if err != nil {
			return nil, 0, 0, err
		}
		instr := isa.BoundsCheck{Bound: bound, Value: ea.Direct(register.D(int(dn)))}
		return instr, value.Word, 2 + n, nil

	case (opcode>>8) == 0x02: // ANDI
		return decodeImmediateToEA(opcode, ext, newAnd)
	case (opcode>>8) == 0x00: // ORI
		return decodeImmediateToEA(opcode, ext, newOr)
	case (opcode>>8) == 0x0A: // EORI
		return decodeImmediateToEA(opcode, ext, newXor)
	case (opcode>>8) == 0x06: // ADDI
		return decodeImmediateToEA(opcode, ext, newAdd)
	case (opcode>>8) == 0x04: // SUBI
		return decodeImmediateToEA(opcode, ext, newSub)

	case opcode&0xF000 == 0x5000 && (opcode&0xC0) != 0xC0: // ADDQ/SUBQ
		data := (opcode >> 9) & 7
		if data == 0 {
			data = 8
		}
		size, err := quickSize((opcode >> 6) & 3)
		if err != nil {
			return nil, 0, 0, err
		}
		mode, reg := eaFields(opcode)
		dest, n, err := decodeEA(mode, reg, size, ext)
		if err != nil {
			return nil, 0, 0, err
		}
		src := ea.ImmediateValue(uint32(data))
		if opcode&0x0100 != 0 {
			return isa.Subtract{Src: src, Dest: dest}, size, 2 + n, nil
		}
		return isa.Add{Src: src, Dest: dest}, size, 2 + n, nil

	case opcode&0xC000 == 0x0000 && (opcode&0x3000) != 0x0000: // MOVE/MOVEA
		size, err := moveSize((opcode >> 12) & 3)
		if err != nil {
			return nil, 0, 0, err
		}
		destReg := (opcode >> 9) & 7
		destMode := (opcode >> 6) & 7
		srcMode := (opcode >> 3) & 7
		srcReg := opcode & 7

		src, n1, err := decodeEA(srcMode, srcReg, size, ext)
		if err != nil {
			return nil, 0, 0, err
		}
		dest, n2, err := decodeEA(destMode, destReg, size, ext[n1:])
		if err != nil {
			return nil, 0, 0, err
		}
		return isa.Move{Src: src, Dest: dest}, size, 2 + n1 + n2, nil

	case opcode&0xF000 == 0xD000: // ADD/ADDA
		return decodeRegisterOp(opcode, ext, newAdd, true)
	case opcode&0xF000 == 0x9000: // SUB/SUBA
		return decodeRegisterOp(opcode, ext, newSub, true)

	case opcode&0xF000 == 0xC000: // AND, or MULU when opmode == 011
		if (opcode>>6)&7 == 0b011 {
			return decodeMulu(opcode, ext)
		}
		return decodeRegisterOp(opcode, ext, newAnd, false)

	case opcode&0xF000 == 0x8000: // OR (DIVU/DIVS opmodes are Unimplemented)
		if om := (opcode >> 6) & 7; om == 0b011 || om == 0b111 {
			return isa.Unimplemented{Opcode: opcode}, value.Long, 2, nil
		}
		return decodeRegisterOp(opcode, ext, newOr, false)

	case opcode&0xF000 == 0xB000: // EOR (CMP/CMPA opmodes are Unimplemented)
		if om := (opcode >> 6) & 7; om < 0b100 || om == 0b111 {
			return isa.Unimplemented{Opcode: opcode}, value.Long, 2, nil
		}
		return decodeRegisterOp(opcode, ext, newXor, false)

	case opcode&0xF000 == 0xE000: // ROL (ROR and the other shift types are Unimplemented)
		if (opcode>>3)&3 != 0b11 {
			return isa.Unimplemented{Opcode: opcode}, value.Long, 2, nil
		}
		size, err := quickSize((opcode >> 6) & 3)
		if err != nil {
			return nil, 0, 0, err
		}
		reg := opcode & 7
		target := ea.Direct(register.D(int(reg)))
		var amount ea.EffectiveAddress
		if opcode&0x20 != 0 { // register-specified count
			amount = ea.Direct(register.D(int((opcode >> 9) & 7)))
		} else { // immediate count, 0 means 8
			count := (opcode >> 9) & 7
			if count == 0 {
				count = 8
			}
			amount = ea.ImmediateValue(uint32(count))
		}
		if opcode&0x100 == 0 { // bit 8 clear: right rotation, not supported
			return isa.Unimplemented{Opcode: opcode}, size, 2, nil
		}
		return isa.RotateLeft{ToRotate: target, RotateAmount: amount}, size, 2, nil

	default:
		return isa.Unimplemented{Opcode: opcode}, value.Long, 2, nil
	}
}

// eaFields extracts the standard low-6-bit "mmmrrr" addressing field
// (mode in bits 5-3, register in bits 2-0) via mask.Range, counting bit
// positions from the MSB as mask does.
func eaFields(opcode uint16) (uint16, uint16) {
	return mask.Range(opcode, mask.I11, mask.I13), mask.Range(opcode, mask.I14, mask.I16)
}

type binaryCtor func(src, dest ea.EffectiveAddress) isa.Instruction

func newAdd(src, dest ea.EffectiveAddress) isa.Instruction { return isa.Add{Src: src, Dest: dest} }
func newSub(src, dest ea.EffectiveAddress) isa.Instruction {
	return isa.Subtract{Src: src, Dest: dest}
}
func newAnd(src, dest ea.EffectiveAddress) isa.Instruction { return isa.And{Src: src, Dest: dest} }
func newOr(src, dest ea.EffectiveAddress) isa.Instruction {
	return isa.InclusiveOr{Src: src, Dest: dest}
}
func newXor(src, dest ea.EffectiveAddress) isa.Instruction {
	return isa.ExclusiveOr{Src: src, Dest: dest}
}

// decodeRegisterOp handles the common ADD/SUB/AND/OR/EOR register-form
// shape: bits 11-9 name a data register, bits 8-6 select direction and
// size, bits 5-0 name an effective address.
//
// addressable is true for ADD/SUB, whose opmode 0b011/0b111 select the
// ADDA/SUBA form (an address register destination, sized word/long by the
// opmode's low bit) instead of the usual direction/size encoding; AND/OR/EOR
// have no such form and pass false.
func decodeRegisterOp(opcode uint16, ext []byte, ctor binaryCtor, addressable bool) (isa.Instruction, value.OperandSize, int, error) {
	dn := (opcode >> 9) & 7
	opmode := (opcode >> 6) & 7
	mode := (opcode >> 3) & 7
	reg := opcode & 7

	if addressable && opmode&0b011 == 0b011 {
		size := value.Word
		if opmode&0b100 != 0 {
			size = value.Long
		}
		eaOperand, n, err := decodeEA(mode, reg, size, ext)
		if err != nil {
			return nil, 0, 0, err
		}
		aReg := ea.Direct(register.A(int(dn)))
		return ctor(eaOperand, aReg), size, 2 + n, nil
	}

	size, err := quickSize(opmode & 3)
	if err != nil {
		return nil, 0, 0, err
	}
	eaOperand, n, err := decodeEA(mode, reg, size, ext)
	if err != nil {
		return nil, 0, 0, err
	}
	dReg := ea.Direct(register.D(int(dn)))
	if opmode&0b100 != 0 {
		// EA is the destination, Dn is the source
		return ctor(dReg, eaOperand), size, 2 + n, nil
	}
	return ctor(eaOperand, dReg), size, 2 + n, nil
}

func decodeMulu(opcode uint16, ext []byte) (isa.Instruction, value.OperandSize, int, error) {
	dn := (opcode >> 9) & 7
	mode := (opcode >> 3) & 7
	reg := opcode & 7
	src, n, err := decodeEA(mode, reg, value.Word, ext)
	if err != nil {
		return nil, 0, 0, err
	}
	dest := ea.Direct(register.D(int(dn)))
	return isa.MultiplyUnsigned{Src: src, Dest: dest}, value.Word, 2 + n, nil
}

// decodeImmediateToEA handles the ANDI/ORI/EORI/ADDI/SUBI shape: an
// immediate of the operation's size, followed by a single EA destination
// (which also serves as the other operand).
func decodeImmediateToEA(opcode uint16, ext []byte, ctor binaryCtor) (isa.Instruction, value.OperandSize, int, error) {
	size, err := quickSize((opcode >> 6) & 3)
	if err != nil {
		return nil, 0, 0, err
	}
	immBytes := 2
	if size == value.Long {
		immBytes = 4
	}
	if len(ext) < immBytes {
		return nil, 0, 0, &ParseError{Reason: "truncated immediate operand"}
	}
	var imm uint32
	if size == value.Byte || size == value.Word {
		imm = uint32(uint16(ext[0])<<8 | uint16(ext[1]))
	} else {
		imm = uint32(ext[0])<<24 | uint32(ext[1])<<16 | uint32(ext[2])<<8 | uint32(ext[3])
	}
	mode := (opcode >> 3) & 7
	reg := opcode & 7
	dest, n, err := decodeEA(mode, reg, size, ext[immBytes:])
	if err != nil {
		return nil, 0, 0, err
	}
	return ctor(ea.ImmediateValue(imm), dest), size, 2 + immBytes + n, nil
}

func quickSize(bits uint16) (value.OperandSize, error) {
	switch bits {
	case 0b00:
		return value.Byte, nil
	case 0b01:
		return value.Word, nil
	case 0b10:
		return value.Long, nil
	default:
		return 0, &ParseError{Reason: "invalid size bits"}
	}
}

func moveSize(bits uint16) (value.OperandSize, error) {
	switch bits {
	case 0b01:
		return value.Byte, nil
	case 0b11:
		return value.Word, nil
	case 0b10:
		return value.Long, nil
	default:
		return 0, &ParseError{Reason: "invalid MOVE size bits"}
	}
}

// decodeEA normalizes a standard 3-bit mode / 3-bit register field pair
// into an effective-address operand, consuming any extension words the
// mode requires from ext. It returns how many bytes of ext it consumed.
func decodeEA(mode, reg uint16, size value.OperandSize, ext []byte) (ea.EffectiveAddress, int, error) {
	switch mode {
	case 0:
		return ea.Direct(register.D(int(reg))), 0, nil
	case 1:
		return ea.Direct(register.A(int(reg))), 0, nil
	case 2:
		return ea.Indirect(register.A(int(reg))), 0, nil
	case 3:
		return ea.PostIncrement(register.A(int(reg))), 0, nil
	case 4:
		return ea.PreDecrement(register.A(int(reg))), 0, nil
	case 5:
		disp, err := readWordSignExtended(ext)
		if err != nil {
			return ea.EffectiveAddress{}, 0, err
		}
		return ea.WithDisplacement(register.A(int(reg)), disp), 2, nil
	case 6:
		index, disp, err := readIndexExtensionWord(ext)
		if err != nil {
			return ea.EffectiveAddress{}, 0, err
		}
		return ea.Indexed(register.A(int(reg)), index, disp), 2, nil
	case 7:
		switch reg {
		case 0: // absolute short
			w, err := readWordSignExtended(ext)
			if err != nil {
				return ea.EffectiveAddress{}, 0, err
			}
			return ea.AbsoluteAddr(uint32(w)), 2, nil
		case 1: // absolute long
			if len(ext) < 4 {
				return ea.EffectiveAddress{}, 0, &ParseError{Reason: "truncated absolute long address"}
			}
			addr := uint32(ext[0])<<24 | uint32(ext[1])<<16 | uint32(ext[2])<<8 | uint32(ext[3])
			return ea.AbsoluteAddr(addr), 4, nil
		case 2: // PC with displacement
			disp, err := readWordSignExtended(ext)
			if err != nil {
				return ea.EffectiveAddress{}, 0, err
			}
			return ea.PCWithDisplacement(disp), 2, nil
		case 3: // PC indexed
			index, disp, err := readIndexExtensionWord(ext)
			if err != nil {
				return ea.EffectiveAddress{}, 0, err
			}
			return ea.PCIndexed(index, disp), 2, nil
		case 4: // immediate
			switch size {
			case value.Byte, value.Word:
				if len(ext) < 2 {
					return ea.EffectiveAddress{}, 0, &ParseError{Reason: "truncated immediate"}
				}
				w := uint16(ext[0])<<8 | uint16(ext[1])
				if size == value.Byte {
					w &= 0xFF
				}
				return ea.ImmediateValue(uint32(w)), 2, nil
			default:
				if len(ext) < 4 {
					return ea.EffectiveAddress{}, 0, &ParseError{Reason: "truncated immediate"}
				}
				l := uint32(ext[0])<<24 | uint32(ext[1])<<16 | uint32(ext[2])<<8 | uint32(ext[3])
				return ea.ImmediateValue(l), 4, nil
			}
		default:
			return ea.EffectiveAddress{}, 0, &ParseError{Reason: fmt.Sprintf("unsupported mode 7 sub-register %d", reg)}
		}
	default:
		return ea.EffectiveAddress{}, 0, &ParseError{Reason: fmt.Sprintf("unsupported addressing mode %d", mode)}
	}
}

func readWordSignExtended(ext []byte) (int32, error) {
	if len(ext) < 2 {
		return 0, &ParseError{Reason: "truncated displacement"}
	}
	w := uint16(ext[0])<<8 | uint16(ext[1])
	return int32(int16(w)), nil
}

// readIndexExtensionWord decodes a brief extension word: bit 15 selects
// data/address register, bits 14-12 the register number, bits 7-0 an 8-bit
// displacement. Bit 11 (word or long index size) is not decoded; the index
// register is always used in full.
func readIndexExtensionWord(ext []byte) (register.Selector, int32, error) {
	if len(ext) < 2 {
		return register.Selector{}, 0, &ParseError{Reason: "truncated index extension word"}
	}
	w := uint16(ext[0])<<8 | uint16(ext[1])
	reg := int((w >> 12) & 7)
	disp := int32(int8(w & 0xFF))
	if w&0x8000 != 0 {
		return register.A(reg), disp, nil
	}
	return register.D(reg), disp, nil
}
