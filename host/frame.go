package host

import (
	"image"
	"image/color"

	"github.com/nf/c8/chip8"
)

// Frame holds a per-pixel intensity view of the machine's display with a
// phosphor-style decay: lit pixels snap to full intensity, unlit pixels
// fade out over the configured fade time. A fade time of zero reproduces
// the raw bitmap.
type Frame struct {
	fade float64
	pix  [chip8.ScreenWidth * chip8.ScreenHeight]float32
}

func NewFrame(fadeTime float64) *Frame {
	return &Frame{fade: fadeTime}
}

// Update advances the decay by dt seconds and absorbs the machine's
// current bitmap.
func (f *Frame) Update(m *chip8.Machine, dt float64) {
	amount := float32(1)
	if f.fade > 0 {
		amount = float32(dt / f.fade)
	}
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			p := &f.pix[y*chip8.ScreenWidth+x]
			if m.Pixel(x, y) {
				*p = 1
			} else if *p > 0 {
				*p -= amount
				if *p < 0 {
					*p = 0
				}
			}
		}
	}
}

// Intensity returns the current intensity of pixel (x, y) in [0, 1].
func (f *Frame) Intensity(x, y int) float64 {
	return float64(f.pix[y*chip8.ScreenWidth+x])
}

// Reset clears all intensity, for use after a program swap.
func (f *Frame) Reset() {
	f.pix = [chip8.ScreenWidth * chip8.ScreenHeight]float32{}
}

// Render writes the frame into dst, blending front over back by intensity.
// dst must be exactly screen-sized with a zero origin.
func (f *Frame) Render(dst *image.RGBA, front, back color.RGBA) {
	if b := dst.Bounds(); b.Min != (image.Point{}) ||
		b.Dx() != chip8.ScreenWidth || b.Dy() != chip8.ScreenHeight {
		panic("host: Render destination is not screen-sized")
	}
	for i, a := range f.pix {
		o := i * 4
		dst.Pix[o+0] = blend(back.R, front.R, a)
		dst.Pix[o+1] = blend(back.G, front.G, a)
		dst.Pix[o+2] = blend(back.B, front.B, a)
		dst.Pix[o+3] = 0xff
	}
}

func blend(b, f byte, a float32) byte {
	return byte(float32(b)*(1-a) + float32(f)*a)
}
