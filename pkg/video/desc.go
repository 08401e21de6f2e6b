package video

import "fmt"

// Interlacing tags the field structure of the stream.
type Interlacing int

const (
	Progressive Interlacing = iota
	UpperFieldFirst
	LowerFieldFirst
	InterlacedMerged
	SegmentedFrame
)

var interlacingSuffix = map[Interlacing]string{
	Progressive:      "p",
	UpperFieldFirst:  "f",
	LowerFieldFirst:  "f",
	InterlacedMerged: "i",
	SegmentedFrame:   "psf",
}

func (i Interlacing) String() string {
	return interlacingSuffix[i]
}

// FieldBased reports whether frames carry single fields rather than
// whole pictures.
func (i Interlacing) FieldBased() bool {
	return i == UpperFieldFirst || i == LowerFieldFirst
}

// Desc describes the video format of a stream.
type Desc struct {
	Width       int
	Height      int
	FPS         float64
	Interlacing Interlacing
	ColorSpec   Codec
	TileCount   int
}

// Eq compares descriptors field-wise.
func (d Desc) Eq(o Desc) bool {
	return d == o
}

// EqExclTileCount compares descriptors ignoring the tile count, which is
// inferred from the highest substream index seen and therefore unreliable
// until the whole first frame arrived.
func (d Desc) EqExclTileCount(o Desc) bool {
	d.TileCount = 0
	o.TileCount = 0
	return d == o
}

func (d Desc) String() string {
	fps := d.FPS
	if d.Interlacing.FieldBased() {
		fps *= 2
	}
	return fmt.Sprintf("%dx%d @%.2f%s, codec %s", d.Width, d.Height, fps,
		d.Interlacing, d.ColorSpec)
}

// ComputeFPS decodes the fractional NTSC-style frame rate from its wire
// fields: fps = (fpsPt + fd) / (fpsd * (fi ? 1.001 : 1)).
func ComputeFPS(fpsPt, fpsd, fd, fi int) float64 {
	div := float64(fpsd)
	if fi != 0 {
		div *= 1.001
	}
	if div == 0 {
		return 0
	}
	return float64(fpsPt+fd) / div
}

// EncodeFPS produces the wire fields for a frame rate. Integral rates map
// to (fps, 1, 0, 0); the NTSC rates 29.97 and 59.94 use the 1.001 divisor.
func EncodeFPS(fps float64) (fpsPt, fpsd, fd, fi int) {
	rounded := int(fps + 0.5)
	if fps == float64(rounded) {
		return rounded, 1, 0, 0
	}
	// NTSC fractions: fps = rounded/1.001
	return rounded, 1, 0, 1
}
