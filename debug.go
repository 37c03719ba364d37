package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/c8/chip8"
	"github.com/nf/c8/host"
)

type debugger struct {
	run *host.Runner

	log   *tview.TextView
	watch *tview.TextView
	state *tview.TextView
	input *tview.InputField
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application

	romsDir string

	mu      sync.Mutex
	brk     uint16 // zero means no breakpoint
	watches []watch
}

type watch struct {
	addr uint16
	wide bool
}

func newDebugView(romsDir string) *debugger {
	d := &debugger{
		log: tview.NewTextView().
			SetMaxLines(1000),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		state: tview.NewTextView().
			SetWrap(false),
		input:   tview.NewInputField(),
		cols:    tview.NewFlex(),
		rows:    tview.NewFlex().SetDirection(tview.FlexRow),
		app:     tview.NewApplication(),
		romsDir: romsDir,
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 4, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetAutocompleteFunc(func(t string) (entries []string) {
		if cmd, arg, ok := strings.Cut(t, " "); ok && cmd == "load" {
			roms, err := host.ListROMs(d.romsDir)
			if err != nil {
				return
			}
			for _, r := range roms {
				if strings.HasPrefix(r.Name, arg) {
					entries = append(entries, cmd+" "+r.Name)
				}
			}
		}
		return
	})
	d.input.SetAutocompletedFunc(func(t string, index, src int) bool {
		if src != tview.AutocompletedNavigate {
			d.input.SetText(t)
		}
		return src == tview.AutocompletedEnter || src == tview.AutocompletedClick
	})
	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := d.input.GetText()
		if cmd == "" {
			return
		}
		d.input.SetText("")
		if cmd == "exit" {
			d.app.Stop()
			return
		}
		if cmd, arg, ok := strings.Cut(cmd, " "); ok {
			switch cmd {
			case "b", "break":
				addr, ok := parseAddr(arg)
				if !ok {
					log.Printf("invalid addr %q", arg)
					return
				}
				d.run.Debug(cmd, addr)
				d.mu.Lock()
				d.brk = addr
				d.mu.Unlock()
				log.Printf("set break %.4x", addr)
				return
			case "w", "w2", "watch", "watch2":
				addr, ok := parseAddr(arg)
				if !ok {
					log.Printf("invalid addr %q", arg)
					return
				}
				d.mu.Lock()
				d.watches = append(d.watches,
					watch{addr: addr, wide: strings.HasSuffix(cmd, "2")})
				d.mu.Unlock()
				log.Printf("watching %.4x", addr)
				return
			case "load":
				rom, err := os.ReadFile(filepath.Join(d.romsDir, arg))
				if err != nil {
					log.Printf("load: %v", err)
					return
				}
				d.run.Swap(rom)
				log.Printf("load %s", arg)
				return
			}
		}
		d.run.Debug(cmd, 0)
		if cmd[0] == 'b' {
			d.mu.Lock()
			d.brk = 0
			d.mu.Unlock()
			log.Print("cleared break")
		}
	})
	return d
}

// parseAddr reads a hexadecimal machine address.
func parseAddr(s string) (uint16, bool) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	if err != nil || n >= 0x1000 {
		return 0, false
	}
	return uint16(n), true
}

func (d *debugger) Run() error { return d.app.Run() }

func (d *debugger) StateFunc(m *chip8.Machine, k host.StateKind) {
	var (
		watch = d.watchContent(m)
		state string
	)
	if k != host.ClearState && k != host.QuietState {
		state = stateMsg(m, k)
	}
	d.app.QueueUpdateDraw(func() {
		switch k {
		case host.ClearState:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case host.BreakState:
			d.state.SetTextColor(tcell.ColorYellow)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case host.PauseState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case host.FaultState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.watch.SetText(watch)
		if k != host.QuietState {
			d.state.SetText(state)
		}
	})
}

func stateMsg(m *chip8.Machine, k host.StateKind) string {
	kind := "       "
	switch k {
	case host.BreakState:
		kind = "[break]"
	case host.PauseState:
		kind = "[pause]"
	case host.FaultState:
		kind = "[fault]"
	}
	return fmt.Sprintf("%.4x %-14v %s\nV: %x\nI: %.4x  SP: %.2x  DT: %.2x  ST: %.2x\n",
		m.PC, m.FetchOp(m.PC), kind, m.V, m.I, m.SP, m.Delay, m.Sound)
}

func (d *debugger) watchContent(m *chip8.Machine) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if d.brk != 0 {
		fmt.Fprintf(&b, "[%.4x] brk!\n", d.brk)
	}
	for _, w := range d.watches {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%.4x] ", w.addr)
		if w.wide {
			fmt.Fprintf(&b, "%.2x%.2x", m.Mem[w.addr], m.Mem[(w.addr+1)&0xfff])
		} else {
			fmt.Fprintf(&b, "  %.2x", m.Mem[w.addr])
		}
	}
	return b.String()
}
