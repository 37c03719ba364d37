package chip8

import "fmt"

// bitView addresses a byte region as a sequence of bits, where bit 0 is the
// most significant bit of the first byte. It is how the display region is
// read and written as a bitmap.
type bitView struct {
	bytes []byte
	n     int // length in bits
}

func view(b []byte) bitView {
	return bitView{bytes: b, n: len(b) * 8}
}

func (v bitView) get(i int) bool {
	v.check(i)
	return v.bytes[i/8]&(0x80>>(i%8)) != 0
}

func (v bitView) set(i int, on bool) {
	v.check(i)
	mask := byte(0x80) >> (i % 8)
	if on {
		v.bytes[i/8] |= mask
	} else {
		v.bytes[i/8] &^= mask
	}
}

func (v bitView) check(i int) {
	if i < 0 || i >= v.n {
		panic(fmt.Sprintf("chip8: bit %d out of range (%d bits)", i, v.n))
	}
}
