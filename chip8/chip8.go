// Package chip8 provides an implementation of a CHIP-8 virtual machine,
// called Machine, that can be used to execute CHIP-8 programs.
//
// The machine does not schedule itself: the host calls Step with the
// wall-clock time elapsed since the previous call, at whatever cadence it
// chooses. Each call ticks the 60Hz timers and executes exactly one
// instruction, so the host's call rate is the machine's clock rate.
package chip8

import (
	"errors"
	"fmt"
	"math/rand"
)

// Machine geometry. The display is a monochrome bitmap; the keypad has one
// key per hexadecimal digit.
const (
	ScreenWidth  = 64
	ScreenHeight = 32
	NumRegisters = 16
	NumKeys      = 16
)

// Memory layout. The font occupies the bottom of memory, the loaded program
// runs from ProgramStart, and the top of the address space holds the call
// stack and the display bitmap.
const (
	memorySize   = 0x1000
	ProgramStart = 0x200
	stackStart   = 0xea0
	displayStart = 0xf00

	// ProgramCapacity is the size of the program region: everything between
	// ProgramStart and the call stack.
	ProgramCapacity = stackStart - ProgramStart

	// stackLimit is the highest valid stack pointer value. The stack pointer
	// is a byte offset into the stack region and each call consumes two
	// bytes, so it must leave room for one return address below the display.
	stackLimit = displayStart - stackStart - 2
)

// timerPeriod is the interval between delay/sound timer decrements.
const timerPeriod = 1.0 / 60

// Machine is a CHIP-8 virtual machine.
//
// Its state fields are exported for the benefit of debuggers and tests, but
// only one goroutine may use a Machine at a time.
type Machine struct {
	Mem   [memorySize]byte
	V     [NumRegisters]byte // V[0xf] doubles as the carry/borrow/collision flag
	PC    uint16
	I     uint16 // address register
	SP    byte   // byte offset into the stack region
	Delay byte
	Sound byte
	Keys  [NumKeys]bool

	// Rand supplies the byte consumed by the RND instruction. If nil, a
	// shared pseudo-random source is used. Tests and replay harnesses set
	// it to a deterministic function.
	Rand func() byte

	elapsed float64 // time accrued toward the next timer tick
}

// New returns a machine with no program loaded, showing the splash screen.
func New() *Machine {
	m := &Machine{}
	m.Reset()
	m.paintSplash()
	return m
}

// Reset restores the machine to its power-on state: memory, registers,
// timers, and keyboard are cleared, the font table is rewritten, and the
// program counter is set to ProgramStart.
func (m *Machine) Reset() {
	m.Mem = [memorySize]byte{}
	m.V = [NumRegisters]byte{}
	m.Keys = [NumKeys]bool{}
	m.PC = ProgramStart
	m.I = 0
	m.SP = 0
	m.Delay = 0
	m.Sound = 0
	m.elapsed = 0
	copy(m.Mem[:], font[:])
}

// ErrProgramTooLarge is returned by Load for programs that do not fit in
// the program region.
var ErrProgramTooLarge = errors.New("program too large")

// Load resets the machine and copies rom into memory at ProgramStart.
// If rom is larger than ProgramCapacity the machine is left untouched and
// the previously loaded program remains runnable.
func (m *Machine) Load(rom []byte) error {
	if len(rom) > ProgramCapacity {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrProgramTooLarge, len(rom), ProgramCapacity)
	}
	m.Reset()
	copy(m.Mem[ProgramStart:], rom)
	return nil
}

// Step advances the timers by dt seconds and executes the instruction at
// m.PC. It returns a FaultError if the instruction cannot be executed; the
// program counter is then left addressing the faulting instruction and the
// machine is otherwise unchanged, so subsequent calls keep ticking the
// timers while refetching the same instruction.
func (m *Machine) Step(dt float64) error {
	m.elapsed += dt
	for m.elapsed >= timerPeriod {
		m.elapsed -= timerPeriod
		if m.Delay > 0 {
			m.Delay--
		}
		if m.Sound > 0 {
			m.Sound--
		}
	}
	return m.exec()
}

func (m *Machine) exec() error {
	m.PC &= 0xfff
	var (
		op   = m.FetchOp(m.PC)
		opPC = m.PC
	)
	m.PC += 2

	fault := func(f Fault) error {
		m.PC = opPC
		return FaultError{Fault: f, Op: op, Addr: opPC}
	}

	x, y := op.X(), op.Y()

	switch op >> 12 {
	case 0x0:
		switch op {
		case 0x00e0: // CLS
			for i := range m.Mem[displayStart:] {
				m.Mem[displayStart+i] = 0
			}
		case 0x00ee: // RET
			if m.SP == 0 {
				return fault(StackUnderflow)
			}
			m.PC = uint16(m.Mem[stackStart+uint16(m.SP)]) |
				uint16(m.Mem[stackStart+uint16(m.SP)+1])<<8
			m.SP -= 2
		default:
			return fault(UnknownOp)
		}

	case 0x1: // JP nnn
		m.PC = op.NNN()

	case 0x2: // CALL nnn
		if m.SP >= stackLimit {
			return fault(StackOverflow)
		}
		m.SP += 2
		m.Mem[stackStart+uint16(m.SP)] = byte(m.PC)
		m.Mem[stackStart+uint16(m.SP)+1] = byte(m.PC >> 8)
		m.PC = op.NNN()

	case 0x3: // SE Vx, nn
		if m.V[x] == op.NN() {
			m.PC += 2
		}
	case 0x4: // SNE Vx, nn
		if m.V[x] != op.NN() {
			m.PC += 2
		}
	case 0x5: // SE Vx, Vy
		if op.N() != 0 {
			return fault(UnknownOp)
		}
		if m.V[x] == m.V[y] {
			m.PC += 2
		}

	case 0x6: // LD Vx, nn
		m.V[x] = op.NN()
	case 0x7: // ADD Vx, nn
		m.V[x] += op.NN()

	case 0x8:
		switch op.N() {
		case 0x0: // LD
			m.V[x] = m.V[y]
		case 0x1: // OR
			m.V[x] |= m.V[y]
		case 0x2: // AND
			m.V[x] &= m.V[y]
		case 0x3: // XOR
			m.V[x] ^= m.V[y]
		case 0x4: // ADD with carry flag
			sum := uint16(m.V[x]) + uint16(m.V[y])
			m.V[x] = byte(sum)
			m.V[0xf] = flag(sum > 0xff)
		case 0x5: // SUB with no-borrow flag
			f := flag(m.V[x] >= m.V[y])
			m.V[x] -= m.V[y]
			m.V[0xf] = f
		case 0x6: // SHR
			f := m.V[x] & 1
			m.V[x] >>= 1
			m.V[0xf] = f
		case 0x7: // SUBN with no-borrow flag
			f := flag(m.V[y] >= m.V[x])
			m.V[x] = m.V[y] - m.V[x]
			m.V[0xf] = f
		case 0xe: // SHL
			f := m.V[x] >> 7
			m.V[x] <<= 1
			m.V[0xf] = f
		default:
			return fault(UnknownOp)
		}

	case 0x9: // SNE Vx, Vy
		if op.N() != 0 {
			return fault(UnknownOp)
		}
		if m.V[x] != m.V[y] {
			m.PC += 2
		}

	case 0xa: // LD I, nnn
		m.I = op.NNN()
	case 0xb: // JP V0, nnn
		m.PC = uint16(m.V[0]) + op.NNN()
	case 0xc: // RND Vx, nn
		m.V[x] = m.randByte() & op.NN()

	case 0xd: // DRW Vx, Vy, n
		m.draw(m.V[x], m.V[y], op.N())

	case 0xe:
		switch op.NN() {
		case 0x9e: // SKP Vx
			if m.Keys[m.V[x]&0xf] {
				m.PC += 2
			}
		case 0xa1: // SKNP Vx
			if !m.Keys[m.V[x]&0xf] {
				m.PC += 2
			}
		default:
			return fault(UnknownOp)
		}

	case 0xf:
		switch op.NN() {
		case 0x07: // LD Vx, DT
			m.V[x] = m.Delay
		case 0x0a: // LD Vx, K
			// Poll rather than block: if no key is down, rewind so the
			// same instruction executes on the next Step.
			pressed := false
			for k := byte(0); k < NumKeys; k++ {
				if m.Keys[k] {
					m.V[x] = k
					pressed = true
					break
				}
			}
			if !pressed {
				m.PC = opPC
			}
		case 0x15: // LD DT, Vx
			m.Delay = m.V[x]
		case 0x18: // LD ST, Vx
			m.Sound = m.V[x]
		case 0x1e: // ADD I, Vx
			m.I += uint16(m.V[x])
		case 0x29: // LD F, Vx
			m.I = uint16(m.V[x]) * 5
		case 0x33: // LD B, Vx
			v := m.V[x]
			m.Mem[m.I&0xfff] = v / 100
			m.Mem[(m.I+1)&0xfff] = v / 10 % 10
			m.Mem[(m.I+2)&0xfff] = v % 10
		case 0x55: // LD [I], Vx
			for i := byte(0); i <= x; i++ {
				m.Mem[(m.I+uint16(i))&0xfff] = m.V[i]
			}
		case 0x65: // LD Vx, [I]
			for i := byte(0); i <= x; i++ {
				m.V[i] = m.Mem[(m.I+uint16(i))&0xfff]
			}
		default:
			return fault(UnknownOp)
		}

	default:
		return fault(UnknownOp)
	}

	return nil
}

// draw XORs an 8xn sprite read from the address register into the display
// bitmap at (sx, sy), setting V[0xf] if any lit pixel is cleared.
// Coordinates wrap per pixel.
func (m *Machine) draw(sx, sy, n byte) {
	vid := m.video()
	m.V[0xf] = 0
	for row := uint16(0); row < uint16(n); row++ {
		y := (uint16(sy) + row) % ScreenHeight
		sprite := m.Mem[(m.I+row)&0xfff]
		for bit := uint16(0); bit < 8; bit++ {
			if sprite&(0x80>>bit) == 0 {
				continue
			}
			x := (uint16(sx) + bit) % ScreenWidth
			i := int(y)*ScreenWidth + int(x)
			if vid.get(i) {
				m.V[0xf] = 1
			}
			vid.set(i, !vid.get(i))
		}
	}
}

func (m *Machine) video() bitView {
	return view(m.Mem[displayStart:])
}

func (m *Machine) randByte() byte {
	if m.Rand != nil {
		return m.Rand()
	}
	return byte(rand.Intn(0x100))
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Pixel reports whether the display pixel at (x, y) is lit.
// It panics if (x, y) is outside the screen.
func (m *Machine) Pixel(x, y int) bool {
	checkCoord(x, y)
	return m.video().get(y*ScreenWidth + x)
}

// SetPixel forces the display pixel at (x, y) on or off, bypassing the
// XOR draw path. It panics if (x, y) is outside the screen.
func (m *Machine) SetPixel(x, y int, on bool) {
	checkCoord(x, y)
	m.video().set(y*ScreenWidth+x, on)
}

// Register returns the value of register Vi.
// It panics if i is out of range.
func (m *Machine) Register(i int) byte {
	if i < 0 || i >= NumRegisters {
		panic(fmt.Sprintf("chip8: register %d out of range", i))
	}
	return m.V[i]
}

// SetKey records whether keypad key k is held down.
// It panics if k is out of range.
func (m *Machine) SetKey(k int, down bool) {
	if k < 0 || k >= NumKeys {
		panic(fmt.Sprintf("chip8: key %d out of range", k))
	}
	m.Keys[k] = down
}

func checkCoord(x, y int) {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		panic(fmt.Sprintf("chip8: pixel (%d, %d) out of range", x, y))
	}
}

// FaultError is returned by Step when the fetched instruction cannot be
// executed. The program counter is left addressing the instruction.
type FaultError struct {
	Fault
	Op   Op
	Addr uint16
}

func (e FaultError) Error() string {
	return fmt.Sprintf("%s executing %v at %.4x", e.Fault, e.Op, e.Addr)
}

// Fault signifies the type of condition that stopped an instruction from
// executing.
type Fault byte

const (
	UnknownOp Fault = iota
	StackOverflow
	StackUnderflow
)

func (f Fault) String() string {
	if s, ok := map[Fault]string{
		UnknownOp:      "unknown instruction",
		StackOverflow:  "call stack overflow",
		StackUnderflow: "return with empty call stack",
	}[f]; ok {
		return s
	}
	return fmt.Sprintf("unknown fault (%.2x)", byte(f))
}
