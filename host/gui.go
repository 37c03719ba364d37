package host

import (
	"image"
	"image/draw"
	"log"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/nf/c8/chip8"
)

type gui struct {
	r *Runner

	// The machine's goroutine offers update and waits on updateDone;
	// between the two the window goroutine may read m and frame.
	update     chan bool
	updateDone chan bool

	m     *chip8.Machine
	frame *Frame

	img   *image.RGBA // native-resolution frame
	dirty bool
	buf   screen.Buffer
	tex   screen.Texture
}

func newGUI(r *Runner) *gui {
	return &gui{
		r:          r,
		update:     make(chan bool),
		updateDone: make(chan bool),
		img: image.NewRGBA(image.Rect(0, 0,
			chip8.ScreenWidth, chip8.ScreenHeight)),
	}
}

func (g *gui) run(exit <-chan struct{}) error {
	driver.Main(func(s screen.Screen) {
		w, err := s.NewWindow(&screen.NewWindowOptions{
			Title:  "c8",
			Width:  chip8.ScreenWidth * 10,
			Height: chip8.ScreenHeight * 10,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer w.Release()

		type refresh struct{}
		go func() {
			t := time.NewTicker(time.Second / 60)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					w.Send(refresh{})
				case <-exit:
					w.Send(lifecycle.Event{To: lifecycle.StageDead})
					return
				}
			}
		}()

		defer g.release()

		var sz size.Event
		for {
			e := w.NextEvent()

			select {
			case <-exit:
				return
			default:
			}

			switch e := e.(type) {
			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					return
				}
				g.dirty = true

			case key.Event:
				if k, ok := keypadKey(e); ok {
					g.r.Key(k, e.Direction != key.DirRelease)
				}

			case refresh:
				select {
				case <-g.update:
					g.frame.Render(g.img, g.r.cfg.FrontColor.color(),
						g.r.cfg.BackColor.color())
					g.updateDone <- true
					g.dirty = true
				default:
					// Machine is busy; paint the previous frame.
				}
				if g.dirty {
					if err := g.paint(s, w, sz); err != nil {
						log.Printf("gui: %v", err)
						return
					}
					g.dirty = false
				}

			case paint.Event:
				w.Publish()

			case error:
				log.Print(e)
			}
		}
	})
	return nil
}

// paint upscales the native frame into a window-sized buffer, letterboxed
// to the display's aspect ratio, and publishes it.
func (g *gui) paint(s screen.Screen, w screen.Window, sz size.Event) error {
	winSize := image.Point{sz.WidthPx, sz.HeightPx}
	if winSize.X == 0 || winSize.Y == 0 {
		return nil
	}
	if g.buf == nil || g.buf.Size() != winSize {
		g.release()
		var err error
		if g.buf, err = s.NewBuffer(winSize); err != nil {
			return err
		}
		if g.tex, err = s.NewTexture(winSize); err != nil {
			return err
		}
	}

	dst := g.buf.RGBA()
	for i := range dst.Pix {
		dst.Pix[i] = 0
	}
	xdraw.NearestNeighbor.Scale(dst, letterbox(winSize), g.img, g.img.Bounds(),
		draw.Src, nil)

	g.tex.Upload(image.Point{}, g.buf, g.buf.Bounds())
	w.Copy(image.Point{}, g.tex, g.tex.Bounds(), draw.Src, nil)
	w.Publish()
	return nil
}

// letterbox returns the largest centered rectangle within win that has the
// display's aspect ratio.
func letterbox(win image.Point) image.Rectangle {
	const aspectW, aspectH = chip8.ScreenWidth, chip8.ScreenHeight
	w, h := win.X, win.X*aspectH/aspectW
	if h > win.Y {
		h = win.Y
		w = win.Y * aspectW / aspectH
	}
	x := (win.X - w) / 2
	y := (win.Y - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

func (g *gui) release() {
	if g.tex != nil {
		g.tex.Release()
		g.tex = nil
	}
	if g.buf != nil {
		g.buf.Release()
		g.buf = nil
	}
}

// keypadKey maps a host key event to a CHIP-8 keypad index: the digits and
// the letters a-f, as on the original hex keypad.
func keypadKey(e key.Event) (int, bool) {
	switch r := unicode.ToLower(e.Rune); {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 0xa, true
	}
	return 0, false
}
