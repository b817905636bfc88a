package qr

import "sync"

// Arithmetic over GF(256) with the QR reduction polynomial, and the
// Reed-Solomon encoder for the single block size this symbol uses.

// fieldPoly is the primitive polynomial x^8+x^4+x^3+x^2+1 used to reduce
// products back into the field.
const fieldPoly = 0x11D

const (
	// dataCodewords is the number of data bytes in one symbol.
	dataCodewords = 28

	// ecCodewords is the number of error-correction bytes appended to
	// the data block.
	ecCodewords = 16
)

// generator holds the exponents of the 16-term Reed-Solomon generator
// polynomial, highest-degree coefficient first (the leading 1 is implicit
// in the shift-register feedback).
var generator = [ecCodewords]byte{
	59, 13, 104, 189, 68, 209, 30, 8,
	163, 65, 41, 229, 98, 50, 36, 59,
}

var (
	gfOnce sync.Once
	gfExp  [256]byte
	gfLog  [256]byte
)

// gfInit fills the exponent and log tables. exp[255] aliases exp[0] so the
// encoder can index without wrapping explicitly when a sum of logs lands
// exactly on the field order.
func gfInit() {
	gfOnce.Do(func() {
		x := 1
		for i := 0; i < 255; i++ {
			gfExp[i] = byte(x)
			gfLog[x] = byte(i)
			x <<= 1
			if x > 255 {
				x ^= fieldPoly
			}
		}
		gfExp[255] = gfExp[0]
	})
}

// ecBytes computes the 16 error-correction bytes for a 28-byte data block
// using a classical linear-feedback shift register. The register starts at
// zero; each data byte XORed with the register head yields a feedback term
// that, when non-zero, multiplies the generator coefficients back into the
// shifted register. After the last data byte the register is the EC block.
//
// Inputs are fixed-length by construction; the caller guarantees
// len(data) == dataCodewords.
func ecBytes(data []byte) [ecCodewords]byte {
	gfInit()

	var reg [ecCodewords]byte
	for _, d := range data {
		feedback := d ^ reg[0]
		copy(reg[:], reg[1:])
		reg[ecCodewords-1] = 0

		if feedback == 0 {
			continue
		}
		lf := int(gfLog[feedback])
		for j := range reg {
			reg[j] ^= gfExp[(lf+int(generator[j]))%255]
		}
	}
	return reg
}
