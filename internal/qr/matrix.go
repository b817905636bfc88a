package qr

import "sync"

// Size is the symbol edge length in modules. The generator produces a
// single fixed symbol version; no other sizes are supported.
const Size = 25

// remainderBits is the number of zero bits after the last codeword. The
// module capacity of this version does not divide evenly into codewords.
const remainderBits = 7

// formatBits is the 15-bit format information (error-correction level and
// mask indicator plus its BCH remainder) baked into both format copies.
// The symbol always uses the checkerboard mask, so this never varies.
const formatBits = 0x5412

// Matrix is the 25x25 module grid, one bit per module, 1 = dark. Rows are
// stored as bitmasks so the whole symbol copies as a small value.
type Matrix [Size]uint32

// At reports whether the module at (row, col) is dark. Row 0 is the top of
// the symbol, column 0 the left edge.
func (m *Matrix) At(row, col int) bool {
	return m[row]>>uint(col)&1 == 1
}

func (m *Matrix) set(row, col int, dark bool) {
	if dark {
		m[row] |= 1 << uint(col)
	} else {
		m[row] &^= 1 << uint(col)
	}
}

// The structural template and its reservation mask are fixed for the
// symbol version, so they are computed once and reused for every encode.
var (
	templateOnce sync.Once

	// baseTemplate holds the dark modules of the finder, timing and
	// alignment patterns plus the baked format information.
	baseTemplate Matrix

	// reservedMask marks every module that placement must skip: 1 means
	// the position belongs to a structural pattern, not to data.
	reservedMask Matrix
)

func templateInit() {
	templateOnce.Do(buildTemplate)
}

func buildTemplate() {
	setFunction := func(row, col int, dark bool) {
		baseTemplate.set(row, col, dark)
		reservedMask.set(row, col, true)
	}

	// Finder patterns in three corners, with their one-module separators.
	drawFinder := func(top, left int) {
		for r := -1; r <= 7; r++ {
			for c := -1; c <= 7; c++ {
				row, col := top+r, left+c
				if row < 0 || row >= Size || col < 0 || col >= Size {
					continue
				}
				inRing := r >= 0 && r <= 6 && c >= 0 && c <= 6
				dark := inRing && (r == 0 || r == 6 || c == 0 || c == 6 ||
					(r >= 2 && r <= 4 && c >= 2 && c <= 4))
				setFunction(row, col, dark)
			}
		}
	}
	drawFinder(0, 0)
	drawFinder(0, Size-7)
	drawFinder(Size-7, 0)

	// Timing patterns: alternating modules in row 6 and column 6 between
	// the finder separators.
	for i := 8; i <= Size-9; i++ {
		setFunction(6, i, i%2 == 0)
		setFunction(i, 6, i%2 == 0)
	}

	// The single alignment pattern of this version, centered at (18, 18).
	const alignCenter = 18
	for r := -2; r <= 2; r++ {
		for c := -2; c <= 2; c++ {
			dark := max(abs(r), abs(c)) != 1
			setFunction(alignCenter+r, alignCenter+c, dark)
		}
	}

	// Format information, two copies around the finders, plus the fixed
	// dark module above the bottom-left finder.
	bit := func(i int) bool { return formatBits>>uint(i)&1 == 1 }

	for i := 0; i <= 5; i++ {
		setFunction(i, 8, bit(i))
	}
	setFunction(7, 8, bit(6))
	setFunction(8, 8, bit(7))
	setFunction(8, 7, bit(8))
	for i := 9; i <= 14; i++ {
		setFunction(8, 14-i, bit(i))
	}

	for i := 0; i <= 7; i++ {
		setFunction(8, Size-1-i, bit(i))
	}
	for i := 8; i <= 14; i++ {
		setFunction(Size-15+i, 8, bit(i))
	}
	setFunction(Size-8, 8, true)
}

// place spreads the interleaved data and EC codewords over the grid in
// two-column zig-zag sweeps from the bottom-right corner, skipping the
// timing column and every reserved module. Each placed bit is flipped by
// the checkerboard mask before it lands.
func place(codewords []byte) Matrix {
	templateInit()
	m := baseTemplate

	totalBits := len(codewords)*8 + remainderBits
	bitAt := func(i int) bool {
		if i >= len(codewords)*8 {
			return false // remainder bits
		}
		return codewords[i/8]>>uint(7-i%8)&1 == 1
	}

	i := 0
	for right := Size - 1; right >= 1; right -= 2 {
		if right == 6 {
			right = 5 // the timing column is never part of a sweep
		}
		upward := ((right + 1) & 2) == 0
		for vert := 0; vert < Size; vert++ {
			row := vert
			if upward {
				row = Size - 1 - vert
			}
			for j := 0; j < 2; j++ {
				col := right - j
				if reservedMask.At(row, col) || i >= totalBits {
					continue
				}
				dark := bitAt(i)
				if (row+col)%2 == 0 {
					dark = !dark
				}
				m.set(row, col, dark)
				i++
			}
		}
	}
	return m
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
