package video

// FECType selects the forward error correction family of a stream.
type FECType int

const (
	FECNone FECType = iota
	FECReedSolomon
	FECLDGM
)

func (t FECType) String() string {
	switch t {
	case FECReedSolomon:
		return "RS"
	case FECLDGM:
		return "LDGM"
	default:
		return "none"
	}
}

// FECParams carries the FEC descriptor signalled in packet headers.
// Two frames belong to the same FEC configuration iff all fields match.
type FECParams struct {
	Type FECType
	K    int
	M    int
	C    int
	Seed int
}

// Tile is one spatial partition of a frame. Data may be a view into a
// larger buffer; DataLen is the valid byte count.
type Tile struct {
	Width   int
	Height  int
	Data    []byte
	DataLen int
}

// Frame is an ordered sequence of tiles plus stream-level metadata.
type Frame struct {
	Tiles       []Tile
	ColorSpec   Codec
	Interlacing Interlacing
	FPS         float64
	SSRC        uint32
	FECParams   FECParams

	// DataDeleter releases tile buffers that the ingress stage allocated.
	// Nil when tiles alias display- or FEC-owned memory.
	DataDeleter func(f *Frame)

	// DecoderOverridesDataLen makes the present stage honor per-tile
	// DataLen values set upstream instead of the configured frame size.
	DecoderOverridesDataLen bool
}

// NewFrame allocates a frame with the given number of empty tiles.
func NewFrame(tileCount int) *Frame {
	return &Frame{Tiles: make([]Tile, tileCount)}
}

// Tile returns the i-th tile of the frame.
func (f *Frame) Tile(i int) *Tile {
	return &f.Tiles[i]
}

// DataLen sums the valid bytes over all tiles.
func (f *Frame) DataLen() int {
	total := 0
	for i := range f.Tiles {
		total += f.Tiles[i].DataLen
	}
	return total
}

// Free runs the frame's data deleter, if any. Tile data must not be used
// afterwards.
func (f *Frame) Free() {
	if f == nil {
		return
	}
	if f.DataDeleter != nil {
		f.DataDeleter(f)
	}
}
