package chip8

import "fmt"

// Op is a 16-bit CHIP-8 instruction as fetched from memory (big-endian).
type Op uint16

// X returns the register selector in the second nibble.
func (o Op) X() byte { return byte(o>>8) & 0xf }

// Y returns the register selector in the third nibble.
func (o Op) Y() byte { return byte(o>>4) & 0xf }

// N returns the low nibble.
func (o Op) N() byte { return byte(o) & 0xf }

// NN returns the low byte.
func (o Op) NN() byte { return byte(o) }

// NNN returns the embedded 12-bit address.
func (o Op) NNN() uint16 { return uint16(o) & 0xfff }

// String renders o using classic CHIP-8 assembler mnemonics, or as a data
// word directive if o matches no instruction pattern.
func (o Op) String() string {
	x, y := o.X(), o.Y()
	switch o >> 12 {
	case 0x0:
		switch o {
		case 0x00e0:
			return "CLS"
		case 0x00ee:
			return "RET"
		}
	case 0x1:
		return fmt.Sprintf("JP %.3x", o.NNN())
	case 0x2:
		return fmt.Sprintf("CALL %.3x", o.NNN())
	case 0x3:
		return fmt.Sprintf("SE V%x, %.2x", x, o.NN())
	case 0x4:
		return fmt.Sprintf("SNE V%x, %.2x", x, o.NN())
	case 0x5:
		if o.N() == 0 {
			return fmt.Sprintf("SE V%x, V%x", x, y)
		}
	case 0x6:
		return fmt.Sprintf("LD V%x, %.2x", x, o.NN())
	case 0x7:
		return fmt.Sprintf("ADD V%x, %.2x", x, o.NN())
	case 0x8:
		switch o.N() {
		case 0x0:
			return fmt.Sprintf("LD V%x, V%x", x, y)
		case 0x1:
			return fmt.Sprintf("OR V%x, V%x", x, y)
		case 0x2:
			return fmt.Sprintf("AND V%x, V%x", x, y)
		case 0x3:
			return fmt.Sprintf("XOR V%x, V%x", x, y)
		case 0x4:
			return fmt.Sprintf("ADD V%x, V%x", x, y)
		case 0x5:
			return fmt.Sprintf("SUB V%x, V%x", x, y)
		case 0x6:
			return fmt.Sprintf("SHR V%x", x)
		case 0x7:
			return fmt.Sprintf("SUBN V%x, V%x", x, y)
		case 0xe:
			return fmt.Sprintf("SHL V%x", x)
		}
	case 0x9:
		if o.N() == 0 {
			return fmt.Sprintf("SNE V%x, V%x", x, y)
		}
	case 0xa:
		return fmt.Sprintf("LD I, %.3x", o.NNN())
	case 0xb:
		return fmt.Sprintf("JP V0, %.3x", o.NNN())
	case 0xc:
		return fmt.Sprintf("RND V%x, %.2x", x, o.NN())
	case 0xd:
		return fmt.Sprintf("DRW V%x, V%x, %x", x, y, o.N())
	case 0xe:
		switch o.NN() {
		case 0x9e:
			return fmt.Sprintf("SKP V%x", x)
		case 0xa1:
			return fmt.Sprintf("SKNP V%x", x)
		}
	case 0xf:
		switch o.NN() {
		case 0x07:
			return fmt.Sprintf("LD V%x, DT", x)
		case 0x0a:
			return fmt.Sprintf("LD V%x, K", x)
		case 0x15:
			return fmt.Sprintf("LD DT, V%x", x)
		case 0x18:
			return fmt.Sprintf("LD ST, V%x", x)
		case 0x1e:
			return fmt.Sprintf("ADD I, V%x", x)
		case 0x29:
			return fmt.Sprintf("LD F, V%x", x)
		case 0x33:
			return fmt.Sprintf("LD B, V%x", x)
		case 0x55:
			return fmt.Sprintf("LD [I], V%x", x)
		case 0x65:
			return fmt.Sprintf("LD V%x, [I]", x)
		}
	}
	return fmt.Sprintf("DW %.4x", uint16(o))
}

// FetchOp returns the instruction at addr without executing it.
func (m *Machine) FetchOp(addr uint16) Op {
	return Op(uint16(m.Mem[addr&0xfff])<<8 | uint16(m.Mem[(addr+1)&0xfff]))
}
