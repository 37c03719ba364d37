package host

import (
	"encoding/binary"
	"math"

	"github.com/ebitengine/oto/v3"
)

const (
	beepRate = 8000 // samples per second
	beepFreq = 440  // Hz
)

// Beep plays a sine tone whose amplitude is sampled from the volume
// function, which must be safe to call from the audio goroutine. The
// Runner supplies a function returning the configured volume while the
// machine's sound timer is nonzero and zero otherwise.
type Beep struct {
	player *oto.Player
}

func NewBeep(volume func() float64) (*Beep, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   beepRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	p := ctx.NewPlayer(&tone{volume: volume})
	p.Play()
	return &Beep{player: p}, nil
}

func (b *Beep) Close() error {
	return b.player.Close()
}

type tone struct {
	volume func() float64
	phase  float64
}

func (t *tone) Read(p []byte) (int, error) {
	const step = 2 * math.Pi * beepFreq / beepRate
	vol := t.volume()
	n := len(p) / 4 * 4
	for i := 0; i < n; i += 4 {
		s := float32(math.Sin(t.phase) * vol)
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(s))
		t.phase += step
		if t.phase > 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return n, nil
}
