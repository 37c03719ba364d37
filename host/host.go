// Package host runs a chip8.Machine against a window, keyboard, and
// speaker. It owns everything the machine treats as external: the clock
// that drives execution, key mapping, the phosphor-fade frame buffer,
// tone generation, and persisted user configuration.
package host

import (
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nf/c8/chip8"
)

// StateKind tells a StateFunc why it is being called.
type StateKind int

const (
	ClearState StateKind = iota // normal execution resumed
	QuietState                  // periodic refresh; no mode change
	PauseState
	BreakState
	FaultState
)

// StateFunc receives machine state reports from a Runner. It is called on
// the machine's own goroutine, so the machine may be inspected freely for
// the duration of the call but must not be retained.
type StateFunc func(m *chip8.Machine, k StateKind)

// Runner drives a machine at a fixed clock rate on its own goroutine,
// feeding it key events and wall-clock time and exposing debugger control.
type Runner struct {
	cfg   Config
	gui   bool
	mute  bool
	state StateFunc

	g     *gui
	keys  chan keyEvent
	swap  chan []byte
	debug chan debugCmd
	vol   atomic.Uint64 // float64 bits of the current beep amplitude

	exit     chan struct{}
	exitOnce sync.Once
}

type keyEvent struct {
	key  int
	down bool
}

type debugCmd struct {
	cmd  string
	addr uint16
}

// NewRunner returns a Runner configured by cfg. If guiEnabled is false no
// window is opened and the machine runs headless. state may be nil.
func NewRunner(cfg Config, guiEnabled, mute bool, state StateFunc) *Runner {
	r := &Runner{
		cfg:   cfg,
		gui:   guiEnabled,
		mute:  mute,
		state: state,
		keys:  make(chan keyEvent, 16),
		swap:  make(chan []byte),
		debug: make(chan debugCmd),
		exit:  make(chan struct{}),
	}
	r.g = newGUI(r)
	return r
}

// Run executes rom until the window is closed or Stop is called.
// It returns immediately if rom does not fit in the machine's
// program region.
func (r *Runner) Run(rom []byte) error {
	m := chip8.New()
	if err := m.Load(rom); err != nil {
		return err
	}

	if !r.mute {
		beep, err := NewBeep(r.volume)
		if err != nil {
			log.Printf("host: audio disabled: %v", err)
		} else {
			defer beep.Close()
		}
	}

	frame := NewFrame(r.cfg.FadeTime)
	r.g.m, r.g.frame = m, frame
	go r.exec(m, frame, rom)

	if r.gui {
		if err := r.g.run(r.exit); err != nil {
			return fmt.Errorf("gui: %v", err)
		}
		r.Stop()
	} else {
		<-r.exit
	}
	return nil
}

// Stop halts the machine and makes Run return.
func (r *Runner) Stop() {
	r.exitOnce.Do(func() { close(r.exit) })
}

// Swap replaces the loaded program, resetting the machine.
func (r *Runner) Swap(rom []byte) {
	select {
	case r.swap <- rom:
	case <-r.exit:
	}
}

// Key records a keypad key transition. Keys outside 0-15 are ignored so
// that arbitrary host keyboard input can be forwarded unfiltered.
func (r *Runner) Key(k int, down bool) {
	if k < 0 || k >= chip8.NumKeys {
		return
	}
	select {
	case r.keys <- keyEvent{k, down}:
	case <-r.exit:
	}
}

// Debug issues a debugger command: "pause", "step", "continue", "reset",
// "exit", or "break" with the breakpoint address (zero clears it).
// Commands may be abbreviated to their first letter.
func (r *Runner) Debug(cmd string, addr uint16) {
	select {
	case r.debug <- debugCmd{cmd, addr}:
	case <-r.exit:
	}
}

// volReportPeriod limits how often QuietState refreshes are delivered.
const volReportPeriod = time.Second / 10

func (r *Runner) exec(m *chip8.Machine, frame *Frame, rom []byte) {
	var (
		period = 1.0 / float64(r.cfg.ClockHz)
		tick   = time.NewTicker(time.Duration(float64(time.Second) * period))
		report = time.NewTicker(volReportPeriod)

		paused  bool
		brk     = -1
		faultPC = -1 // PC of the last reported fault, to log each one once
	)
	defer tick.Stop()
	defer report.Stop()

	step := func() {
		err := m.Step(period)
		frame.Update(m, period)
		r.setVolume(m.Sound > 0)
		if err == nil {
			faultPC = -1
			return
		}
		if int(m.PC) != faultPC {
			faultPC = int(m.PC)
			log.Printf("host: %v", err)
			r.report(m, FaultState)
		}
	}

	for {
		select {
		case <-r.exit:
			return

		case e := <-r.keys:
			m.SetKey(e.key, e.down)

		case newROM := <-r.swap:
			if err := m.Load(newROM); err != nil {
				log.Printf("host: %v", err)
				break
			}
			rom = newROM
			frame.Reset()
			faultPC = -1
			paused = false
			r.report(m, ClearState)

		case c := <-r.debug:
			switch c.cmd[0] {
			case 'p':
				paused = true
				r.report(m, PauseState)
			case 's':
				if paused {
					step()
					r.report(m, PauseState)
				}
			case 'c':
				paused = false
				r.report(m, ClearState)
			case 'b':
				if c.addr == 0 {
					brk = -1
				} else {
					brk = int(c.addr)
				}
			case 'r':
				m.Load(rom)
				frame.Reset()
				faultPC = -1
				r.report(m, ClearState)
			case 'e':
				r.Stop()
			}

		case r.g.update <- true:
			// The GUI reads the frame between this send and its reply.
			<-r.g.updateDone

		case <-report.C:
			r.report(m, QuietState)

		case <-tick.C:
			if paused {
				break
			}
			if brk >= 0 && int(m.PC) == brk {
				paused = true
				r.report(m, BreakState)
				break
			}
			step()
		}
	}
}

func (r *Runner) report(m *chip8.Machine, k StateKind) {
	if r.state != nil {
		r.state(m, k)
	}
}

func (r *Runner) setVolume(audible bool) {
	v := 0.0
	if audible {
		v = r.cfg.Volume
	}
	r.vol.Store(math.Float64bits(v))
}

func (r *Runner) volume() float64 {
	return math.Float64frombits(r.vol.Load())
}
