package chip8

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	m := New()
	if m.PC != ProgramStart {
		t.Errorf("PC is %.4x, want %.4x", m.PC, ProgramStart)
	}
	for i, b := range font {
		if m.Mem[i] != b {
			t.Errorf("Mem[%.2x] = %.2x, want font byte %.2x", i, m.Mem[i], b)
		}
	}
	// The splash screen is painted at construction only.
	lit := 0
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if m.Pixel(x, y) {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no splash pixels lit after New")
	}
	m.Reset()
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if m.Pixel(x, y) {
				t.Fatalf("pixel (%d, %d) lit after Reset", x, y)
			}
		}
	}
}

func TestLoad(t *testing.T) {
	m := New()
	if err := m.Load(bytes.Repeat([]byte{0x42}, ProgramCapacity)); err != nil {
		t.Errorf("Load at capacity: %v", err)
	}
	if m.PC != ProgramStart || m.Delay != 0 || m.Sound != 0 {
		t.Errorf("after Load: PC=%.4x Delay=%d Sound=%d, want %.4x 0 0",
			m.PC, m.Delay, m.Sound, ProgramStart)
	}
	if m.Mem[ProgramStart] != 0x42 || m.Mem[stackStart-1] != 0x42 {
		t.Error("program region not fully written")
	}
	if m.Mem[stackStart] != 0 {
		t.Error("Load wrote past the program region")
	}

	// One byte over capacity must fail without mutating anything.
	m.V[3] = 9
	m.Delay = 7
	err := m.Load(bytes.Repeat([]byte{0x13}, ProgramCapacity+1))
	if !errors.Is(err, ErrProgramTooLarge) {
		t.Fatalf("Load over capacity returned %v, want ErrProgramTooLarge", err)
	}
	if m.Mem[ProgramStart] != 0x42 || m.V[3] != 9 || m.Delay != 7 {
		t.Error("failed Load mutated machine state")
	}
}

func TestExec(t *testing.T) {
	c := newExecTestCase
	for i, c := range []*execTestCase{
		c(0x00e0).pixels(pt{0, 0}, pt{63, 31}).want(), // CLS

		c(0x1234).want().pc(0x234),                       // JP
		c(0x2234).want().sp(2).stack(2, 0x202).pc(0x234), // CALL
		c(0x00ee).sp(2).stack(2, 0x300).want().sp(0).pc(0x300),

		c(0x3542).v(5, 0x42).want().pc(0x204), // SE taken
		c(0x3542).v(5, 0x41).want(),           // SE not taken
		c(0x4542).v(5, 0x41).want().pc(0x204),
		c(0x4542).v(5, 0x42).want(),
		c(0x5120).v(1, 7).v(2, 7).want().pc(0x204),
		c(0x5120).v(1, 7).v(2, 8).want(),
		c(0x9120).v(1, 7).v(2, 8).want().pc(0x204),
		c(0x9120).v(1, 7).v(2, 7).want(),

		c(0x6542).want().v(5, 0x42),                    // LD imm
		c(0x75ff).v(5, 0x02).want().v(5, 0x01),         // ADD imm wraps, no flag
		c(0x75ff).v(5, 0x02).v(0xf, 0).want().v(5, 1),  // ADD imm leaves VF
		c(0x8120).v(2, 0x42).want().v(1, 0x42),         // LD reg
		c(0x8121).v(1, 0x36).v(2, 0x63).want().v(1, 0x77),
		c(0x8122).v(1, 0x99).v(2, 0xb8).want().v(1, 0x98),
		c(0x8123).v(1, 0x31).v(2, 0x13).want().v(1, 0x22),

		c(0x8124).v(1, 0x01).v(2, 0x02).want().v(1, 3),                 // ADD no carry
		c(0x8124).v(1, 0x01).v(2, 0x02).v(0xf, 1).want().v(1, 3).v(0xf, 0),
		c(0x8124).v(1, 0xff).v(2, 0x02).want().v(1, 1).v(0xf, 1),       // carry
		c(0x8125).v(1, 0x03).v(2, 0x02).want().v(1, 1).v(0xf, 1),       // SUB no borrow
		c(0x8125).v(1, 0x02).v(2, 0x03).want().v(1, 0xff).v(0xf, 0),    // borrow
		c(0x8125).v(1, 0x02).v(2, 0x02).want().v(1, 0).v(0xf, 1),
		c(0x8127).v(1, 0x02).v(2, 0x03).want().v(1, 1).v(0xf, 1),       // SUBN
		c(0x8127).v(1, 0x03).v(2, 0x02).want().v(1, 0xff).v(0xf, 0),

		c(0x8126).v(1, 0x05).want().v(1, 0x02).v(0xf, 1), // SHR
		c(0x8126).v(1, 0x04).want().v(1, 0x02).v(0xf, 0),
		c(0x812e).v(1, 0x81).want().v(1, 0x02).v(0xf, 1), // SHL
		c(0x812e).v(1, 0x41).want().v(1, 0x82).v(0xf, 0),

		c(0xa123).want().i(0x123),
		c(0xb005).v(0, 0x10).want().pc(0x015),

		c(0xe19e).v(1, 0x7).key(7).want().pc(0x204), // SKP
		c(0xe19e).v(1, 0x7).want(),
		c(0xe1a1).v(1, 0x7).want().pc(0x204), // SKNP
		c(0xe1a1).v(1, 0x7).key(7).want(),

		c(0xf107).delay(0x42).want().v(1, 0x42),
		c(0xf115).v(1, 0x42).want().delay(0x42),
		c(0xf118).v(1, 0x42).want().sound(0x42),

		c(0xf10a).want().pc(0x200),                     // LD Vx, K: no key held
		c(0xf10a).key(9).key(3).want().v(1, 3),         // lowest key wins
		c(0xf11e).v(1, 0x10).i(0x200).want().i(0x210),  // ADD I
		c(0xf129).v(1, 0xa).want().i(0xa * 5),          // LD F

		c(0xf133).v(1, 254).i(0x300).want().mem(0x300, 2, 5, 4),
		c(0xf133).v(1, 7).i(0x300).want().mem(0x300, 0, 0, 7),
		c(0xf255).v(0, 9).v(1, 8).v(2, 7).v(3, 6).i(0x300).
			want().mem(0x300, 9, 8, 7),
		c(0xf265).mem(0x300, 9, 8, 7, 6).i(0x300).
			want().v(0, 9).v(1, 8).v(2, 7),

		c(0x0123).want().pc(0x200).
			fault(FaultError{Fault: UnknownOp, Op: 0x0123, Addr: 0x200}),
		c(0x5121).want().pc(0x200).
			fault(FaultError{Fault: UnknownOp, Op: 0x5121, Addr: 0x200}),
		c(0x8128).want().pc(0x200).
			fault(FaultError{Fault: UnknownOp, Op: 0x8128, Addr: 0x200}),
		c(0x9121).want().pc(0x200).
			fault(FaultError{Fault: UnknownOp, Op: 0x9121, Addr: 0x200}),
		c(0xe1ff).want().pc(0x200).
			fault(FaultError{Fault: UnknownOp, Op: 0xe1ff, Addr: 0x200}),
		c(0xf1ff).want().pc(0x200).
			fault(FaultError{Fault: UnknownOp, Op: 0xf1ff, Addr: 0x200}),

		c(0x2300).sp(stackLimit).want().pc(0x200).
			fault(FaultError{Fault: StackOverflow, Op: 0x2300, Addr: 0x200}),
		c(0x00ee).want().pc(0x200).
			fault(FaultError{Fault: StackUnderflow, Op: 0x00ee, Addr: 0x200}),
	} {
		t.Run(fmt.Sprintf("%v_%d", c.m.FetchOp(ProgramStart), i), func(t *testing.T) {
			if err := c.m.exec(); err != c.err {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			if g, w := c.m.V, c.w.V; g != w {
				t.Errorf("registers are %x, want %x", g, w)
			}
			if g, w := c.m.PC, c.w.PC; g != w {
				t.Errorf("PC is %.4x, want %.4x", g, w)
			}
			if g, w := c.m.I, c.w.I; g != w {
				t.Errorf("I is %.4x, want %.4x", g, w)
			}
			if g, w := c.m.SP, c.w.SP; g != w {
				t.Errorf("SP is %.2x, want %.2x", g, w)
			}
			if g, w := c.m.Delay, c.w.Delay; g != w {
				t.Errorf("delay timer is %d, want %d", g, w)
			}
			if g, w := c.m.Sound, c.w.Sound; g != w {
				t.Errorf("sound timer is %d, want %d", g, w)
			}
			if g, w := c.m.Mem, c.w.Mem; g != w {
				for i := range g {
					if g[i] != w[i] {
						t.Errorf("Mem[%.4x] = %.2x, want %.2x", i, g[i], w[i])
					}
				}
			}
		})
	}
}

func TestRnd(t *testing.T) {
	m := New()
	m.Load([]byte{0xc1, 0x0f})
	m.Rand = func() byte { return 0xab }
	if err := m.exec(); err != nil {
		t.Fatal(err)
	}
	if g, w := m.V[1], byte(0xab&0x0f); g != w {
		t.Errorf("V1 = %.2x, want %.2x", g, w)
	}
}

func TestDraw(t *testing.T) {
	m := New()
	// Draw the font glyph for 0 at (3, 5) twice: the second draw must
	// restore the screen and report a collision.
	m.Load(nil)
	m.I = 0
	m.draw(3, 5, 5)
	if m.V[0xf] != 0 {
		t.Error("collision flag set drawing on a clean screen")
	}
	if !m.Pixel(3, 5) || !m.Pixel(6, 5) || m.Pixel(4, 6) {
		t.Error("glyph 0 drawn incorrectly")
	}
	m.draw(3, 5, 5)
	if m.V[0xf] != 1 {
		t.Error("collision flag clear on a fully overlapping draw")
	}
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if m.Pixel(x, y) {
				t.Fatalf("pixel (%d, %d) still lit after involutive draw", x, y)
			}
		}
	}
}

func TestDrawWraps(t *testing.T) {
	m := New()
	m.Load(nil)
	m.Mem[0x300] = 0xff
	m.Mem[0x301] = 0xff
	m.I = 0x300
	m.draw(60, 31, 2)
	for _, p := range []pt{{60, 31}, {63, 31}, {0, 31}, {3, 31}, {60, 0}, {3, 0}} {
		if !m.Pixel(p.x, p.y) {
			t.Errorf("pixel (%d, %d) not lit; draw did not wrap", p.x, p.y)
		}
	}
	if m.Pixel(4, 31) || m.Pixel(4, 0) {
		t.Error("draw lit pixels beyond the sprite width")
	}
}

func TestCallReturnRoundTrip(t *testing.T) {
	m := New()
	m.Load([]byte{0x23, 0x00}) // CALL 0x300
	m.Mem[0x300] = 0x00
	m.Mem[0x301] = 0xee // RET
	if err := m.exec(); err != nil {
		t.Fatal(err)
	}
	if m.PC != 0x300 || m.SP != 2 {
		t.Fatalf("after CALL: PC=%.4x SP=%d, want 0300 2", m.PC, m.SP)
	}
	if err := m.exec(); err != nil {
		t.Fatal(err)
	}
	if m.PC != 0x202 || m.SP != 0 {
		t.Errorf("after RET: PC=%.4x SP=%d, want 0202 0", m.PC, m.SP)
	}
}

func TestTimers(t *testing.T) {
	m := New()
	m.Load([]byte{0x12, 0x00}) // JP 0x200, so every Step executes cleanly
	m.Delay = 60
	m.Sound = 60
	for i := 0; i < 48; i++ {
		if err := m.Step(1.0 / 60); err != nil {
			t.Fatal(err)
		}
	}
	if m.Delay != 12 || m.Sound != 12 {
		t.Errorf("after 48 ticks: delay=%d sound=%d, want 12 12", m.Delay, m.Sound)
	}
	for i := 0; i < 100; i++ {
		m.Step(1.0 / 60)
	}
	if m.Delay != 0 || m.Sound != 0 {
		t.Errorf("timers did not floor at zero: delay=%d sound=%d", m.Delay, m.Sound)
	}

	// A large delta after a stall fires one decrement per elapsed period.
	m.Delay = 30
	m.Step(10.0 / 60)
	if m.Delay != 20 {
		t.Errorf("after a 10-period step: delay=%d, want 20", m.Delay)
	}
}

func TestStepHoldsOnFault(t *testing.T) {
	m := New()
	m.Load([]byte{0xff, 0xff})
	m.Delay = 10
	for i := 0; i < 3; i++ {
		err := m.Step(1.0 / 60)
		var fe FaultError
		if !errors.As(err, &fe) || fe.Fault != UnknownOp {
			t.Fatalf("Step returned %v, want unknown instruction fault", err)
		}
		if m.PC != ProgramStart {
			t.Fatalf("PC moved to %.4x on fault", m.PC)
		}
	}
	if m.Delay != 7 {
		t.Errorf("delay timer is %d, want 7: timers must tick while faulting", m.Delay)
	}
}

func TestWaitForKey(t *testing.T) {
	m := New()
	m.Load([]byte{0xf5, 0x0a}) // LD V5, K
	for i := 0; i < 4; i++ {
		if err := m.Step(1.0 / 240); err != nil {
			t.Fatal(err)
		}
		if m.PC != ProgramStart {
			t.Fatalf("PC advanced to %.4x with no key held", m.PC)
		}
	}
	m.SetKey(0xb, true)
	if err := m.Step(1.0 / 240); err != nil {
		t.Fatal(err)
	}
	if m.PC != ProgramStart+2 {
		t.Errorf("PC is %.4x after key press, want %.4x", m.PC, ProgramStart+2)
	}
	if m.V[5] != 0xb {
		t.Errorf("V5 = %.2x, want 0b", m.V[5])
	}
}

func TestAccessorPanics(t *testing.T) {
	m := New()
	for name, f := range map[string]func(){
		"Pixel":    func() { m.Pixel(ScreenWidth, 0) },
		"SetPixel": func() { m.SetPixel(0, ScreenHeight, true) },
		"Register": func() { m.Register(NumRegisters) },
		"SetKey":   func() { m.SetKey(-1, true) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("out of range argument did not panic")
				}
			}()
			f()
		})
	}
}

type pt struct{ x, y int }

type execTestCase struct {
	m, w *Machine
	err  error
	set  *Machine
}

func newExecTestCase(op Op) *execTestCase {
	c := &execTestCase{set: nil}
	rom := []byte{byte(op >> 8), byte(op)}
	c.m = New()
	c.m.Load(rom)
	c.w = New()
	c.w.Load(rom)
	c.w.PC += 2
	c.set = c.m
	return c
}

// Each setter applies to the initial machine until want is called, and to
// the expected machine after. Setters applied to the initial machine are
// mirrored into the expected one, so only changed state needs restating.

func (c *execTestCase) want() *execTestCase {
	c.set = c.w
	return c
}

func (c *execTestCase) v(i int, val byte) *execTestCase {
	c.set.V[i] = val
	if c.set == c.m {
		c.w.V[i] = val
	}
	return c
}

func (c *execTestCase) i(addr uint16) *execTestCase {
	c.set.I = addr
	if c.set == c.m {
		c.w.I = addr
	}
	return c
}

func (c *execTestCase) sp(v byte) *execTestCase {
	c.set.SP = v
	if c.set == c.m {
		c.w.SP = v
	}
	return c
}

func (c *execTestCase) delay(v byte) *execTestCase {
	c.set.Delay = v
	if c.set == c.m {
		c.w.Delay = v
	}
	return c
}

func (c *execTestCase) sound(v byte) *execTestCase {
	c.set.Sound = v
	if c.set == c.m {
		c.w.Sound = v
	}
	return c
}

func (c *execTestCase) key(k int) *execTestCase {
	c.set.Keys[k] = true
	if c.set == c.m {
		c.w.Keys[k] = true
	}
	return c
}

func (c *execTestCase) mem(addr uint16, bytes ...byte) *execTestCase {
	copy(c.set.Mem[addr:], bytes)
	if c.set == c.m {
		copy(c.w.Mem[addr:], bytes)
	}
	return c
}

// stack stores a return address in the given stack slot.
func (c *execTestCase) stack(sp byte, addr uint16) *execTestCase {
	c.set.Mem[stackStart+uint16(sp)] = byte(addr)
	c.set.Mem[stackStart+uint16(sp)+1] = byte(addr >> 8)
	if c.set == c.m {
		c.w.Mem[stackStart+uint16(sp)] = byte(addr)
		c.w.Mem[stackStart+uint16(sp)+1] = byte(addr >> 8)
	}
	return c
}

func (c *execTestCase) pixels(pts ...pt) *execTestCase {
	for _, p := range pts {
		c.set.SetPixel(p.x, p.y, true)
		// Deliberately not mirrored: pixel expectations are stated on
		// whichever machine they apply to.
	}
	return c
}

func (c *execTestCase) pc(addr uint16) *execTestCase {
	c.set.PC = addr
	return c
}

func (c *execTestCase) fault(err error) *execTestCase {
	c.err = err
	return c
}

func TestTimerAccumulatorPrecision(t *testing.T) {
	// Repeated fractional deltas must not drift by more than a tick.
	m := New()
	m.Load([]byte{0x12, 0x00})
	m.Delay = 255
	const dt = 1.0 / 700
	steps := int(math.Round(2.0 / dt)) // two seconds
	for i := 0; i < steps; i++ {
		m.Step(dt)
	}
	if g := int(m.Delay); g < 255-120-1 || g > 255-120+1 {
		t.Errorf("delay timer is %d after 2s, want about %d", g, 255-120)
	}
}
