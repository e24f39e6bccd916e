package terminal

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrReverse   Attr = 1 << 4
	AttrFgRGB     Attr = 1 << 5 // Fg is meaningful, otherwise terminal default foreground
	AttrBgRGB     Attr = 1 << 6 // Bg is meaningful, otherwise terminal default background
)

// AttrStyle masks only the style bits (excludes color flags)
const AttrStyle Attr = AttrBold | AttrDim | AttrItalic | AttrUnderline | AttrReverse

// Cell represents a single terminal cell
// The zero value is a blank cell in the terminal's default colors
type Cell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs Attr
}

// Color cube values for 6x6x6 palette (indices 16-231)
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// cubeIndex maps 0-255 to nearest cube level 0-5
func cubeIndex(v uint8) uint8 {
	best := 0
	bestDist := abs(int(v) - int(cubeValues[0]))
	for j := 1; j < len(cubeValues); j++ {
		if d := abs(int(v) - int(cubeValues[j])); d < bestDist {
			bestDist = d
			best = j
		}
	}
	return uint8(best)
}

// RGBTo256 converts RGB to nearest 256-color palette index
func RGBTo256(c RGB) uint8 {
	gray := (int(c.R) + int(c.G) + int(c.B)) / 3
	maxDiff := max(abs(int(c.R)-gray), abs(int(c.G)-gray), abs(int(c.B)-gray))

	cr, cg, cb := cubeIndex(c.R), cubeIndex(c.G), cubeIndex(c.B)
	cubeIdx := 16 + 36*cr + 6*cg + cb

	if maxDiff >= 10 || gray < 4 || gray > 243 {
		return cubeIdx
	}

	// Grayscale ramp 232-255 maps to luminance 8, 18, ..., 238
	grayIdx := min(232+(gray-8)/10, 255)
	grayLevel := 8 + (grayIdx-232)*10
	grayDist := abs(int(c.R)-grayLevel) + abs(int(c.G)-grayLevel) + abs(int(c.B)-grayLevel)
	cubeDist := abs(int(c.R)-int(cubeValues[cr])) +
		abs(int(c.G)-int(cubeValues[cg])) +
		abs(int(c.B)-int(cubeValues[cb]))

	if grayDist < cubeDist {
		return uint8(grayIdx)
	}
	return cubeIdx
}
