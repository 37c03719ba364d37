package chip8

// font holds the built-in 4x5 glyphs for the hexadecimal digits, five bytes
// per glyph. It is written to address 0 by Reset; the LD F, Vx instruction
// computes glyph addresses from this layout.
var font = [NumKeys * 5]byte{
	0xf0, 0x90, 0x90, 0x90, 0xf0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xf0, 0x10, 0xf0, 0x80, 0xf0, // 2
	0xf0, 0x10, 0xf0, 0x10, 0xf0, // 3
	0x90, 0x90, 0xf0, 0x10, 0x10, // 4
	0xf0, 0x80, 0xf0, 0x10, 0xf0, // 5
	0xf0, 0x80, 0xf0, 0x90, 0xf0, // 6
	0xf0, 0x10, 0x20, 0x40, 0x40, // 7
	0xf0, 0x90, 0xf0, 0x90, 0xf0, // 8
	0xf0, 0x90, 0xf0, 0x10, 0xf0, // 9
	0xf0, 0x90, 0xf0, 0x90, 0x90, // A
	0xe0, 0x90, 0xe0, 0x90, 0xe0, // B
	0xf0, 0x80, 0x80, 0x80, 0xf0, // C
	0xe0, 0x90, 0x90, 0x90, 0xe0, // D
	0xf0, 0x80, 0xf0, 0x80, 0xf0, // E
	0xf0, 0x80, 0xf0, 0x80, 0x80, // F
}

// splash is the 64x32 bitmap shown before a program is loaded, one
// character per pixel.
const splash = "" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"............XXXXXXX..XX...XX..XX..XXXXXXX....XXXXXXX............" +
	"............XX.......XX...XX..XX..XX...XX....XX...XX............" +
	"............XX.......XX...XX..XX..XX...XX....XX...XX............" +
	"............XX.......XX...XX..XX..XX...XX....XX...XX............" +
	"............XX.......XXXXXXX..XX..XXXXXXX....XXXXXXX............" +
	"............XX.......XX...XX..XX..XX.........XX...XX............" +
	"............XX.......XX...XX..XX..XX.........XX...XX............" +
	"............XX.......XX...XX..XX..XX.........XX...XX............" +
	"............XXXXXXX..XX...XX..XX..XX.........XXXXXXX............" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................" +
	"................................................................"

func (m *Machine) paintSplash() {
	vid := m.video()
	for i := 0; i < ScreenWidth*ScreenHeight; i++ {
		vid.set(i, splash[i] == 'X')
	}
}
