// Package qr generates a fixed-version 25x25 barcode symbol encoding a
// coordinate as a geo URI, for display on screens small enough that a
// single symbol size with a baked-in mask is all that is ever needed.
// There is no decoder and no support for other versions or payload shapes.
package qr

import "fmt"

const (
	// modeByte is the 4-bit byte-mode indicator.
	modeByte = 0b0100

	// Padding codewords alternate until the data block is full.
	padEven = 0xEC
	padOdd  = 0x11

	// MaxPayload is the longest message that fits the data block after
	// mode, count and terminator overhead. A geo URI at the extreme
	// south-west corner ("geo:-89.999999,-179.999999") lands exactly
	// on this limit.
	MaxPayload = dataCodewords - 2
)

// Encode renders the coordinate as a "geo:<lat>,<lon>" URI with 6-decimal
// precision and returns the finished symbol. The output is deterministic:
// the same coordinate always produces the same matrix.
func Encode(lat, lon float64) (Matrix, error) {
	return EncodeText(fmt.Sprintf("geo:%.6f,%.6f", lat, lon))
}

// EncodeText builds a symbol for an arbitrary text payload of up to
// MaxPayload bytes. Longer payloads do not fit the fixed block and are
// rejected before any work is done.
func EncodeText(text string) (Matrix, error) {
	data, err := dataBlock(text)
	if err != nil {
		return Matrix{}, err
	}

	ec := ecBytes(data)
	codewords := append(data, ec[:]...)
	return place(codewords), nil
}

// dataBlock assembles the fixed 28-byte data codeword block: mode
// indicator, character count, message bytes, terminator, zero bits up to
// the byte boundary and alternating filler codewords.
func dataBlock(text string) ([]byte, error) {
	if len(text) > MaxPayload {
		return nil, fmt.Errorf("payload is %d bytes, limit is %d", len(text), MaxPayload)
	}

	var buf bitBuffer
	buf.append(modeByte, 4)
	buf.append(uint(len(text)), 8)
	for i := 0; i < len(text); i++ {
		buf.append(uint(text[i]), 8)
	}
	buf.append(0, 4) // terminator
	if rem := buf.n % 8; rem != 0 {
		buf.append(0, 8-rem)
	}
	for i := 0; buf.n < dataCodewords*8; i++ {
		if i%2 == 0 {
			buf.append(padEven, 8)
		} else {
			buf.append(padOdd, 8)
		}
	}
	return buf.b, nil
}

// bitBuffer accumulates big-endian bit groups into bytes.
type bitBuffer struct {
	b []byte
	n int
}

func (bb *bitBuffer) append(v uint, count int) {
	for i := count - 1; i >= 0; i-- {
		if bb.n%8 == 0 {
			bb.b = append(bb.b, 0)
		}
		if v>>uint(i)&1 == 1 {
			bb.b[bb.n/8] |= 0x80 >> uint(bb.n%8)
		}
		bb.n++
	}
}
