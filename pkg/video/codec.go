package video

// Codec identifies a pixel format or compressed bitstream format carried
// in the stream and negotiated with the display.
type Codec uint32

const (
	CodecNone Codec = iota
	RGBA
	UYVY
	V210
	RGB
	BGR
	R10k
	DXT1
	DXT1YUV
	DXT5
	JPEG
	H264
	VP8
)

func fourcc(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

type codecInfo struct {
	name       string
	fcc        uint32
	bpp        float64 // bytes per pixel, fractional for packed formats
	compressed bool
	interframe bool
}

var codecInfos = map[Codec]codecInfo{
	RGBA:    {"RGBA", fourcc('R', 'G', 'B', 'A'), 4, false, false},
	UYVY:    {"UYVY", fourcc('U', 'Y', 'V', 'Y'), 2, false, false},
	V210:    {"v210", fourcc('v', '2', '1', '0'), 8.0 / 3.0, false, false},
	RGB:     {"RGB", fourcc('R', 'G', 'B', '2'), 3, false, false},
	BGR:     {"BGR", fourcc('B', 'G', 'R', '2'), 3, false, false},
	R10k:    {"R10k", fourcc('R', '1', '0', 'k'), 4, false, false},
	DXT1:    {"DXT1", fourcc('D', 'X', 'T', '1'), 0.5, true, false},
	DXT1YUV: {"DXT1_YUV", fourcc('D', 'X', 'T', 'Y'), 0.5, true, false},
	DXT5:    {"DXT5", fourcc('D', 'X', 'T', '5'), 1, true, false},
	JPEG:    {"JPEG", fourcc('J', 'P', 'E', 'G'), 0, true, false},
	H264:    {"H.264", fourcc('A', 'V', 'C', '1'), 0, true, true},
	VP8:     {"VP8", fourcc('V', 'P', '8', '0'), 0, true, true},
}

var fccToCodec = func() map[uint32]Codec {
	m := make(map[uint32]Codec, len(codecInfos))
	for c, info := range codecInfos {
		m[info.fcc] = c
	}
	return m
}()

// CodecFromFourCC resolves a wire FourCC to a codec, CodecNone if unknown.
func CodecFromFourCC(fcc uint32) Codec {
	return fccToCodec[fcc]
}

// FourCC returns the codec's wire identifier.
func (c Codec) FourCC() uint32 {
	return codecInfos[c].fcc
}

func (c Codec) String() string {
	if info, ok := codecInfos[c]; ok {
		return info.name
	}
	return "(none)"
}

// Bpp returns bytes per pixel. Zero for codecs without a fixed pixel size.
func (c Codec) Bpp() float64 {
	return codecInfos[c].bpp
}

// IsCompressed reports whether the payload is an opaque bitstream that
// needs an external decompressor rather than a line transform.
func (c Codec) IsCompressed() bool {
	return codecInfos[c].compressed
}

// IsInterframe reports whether frames reference previous frames.
func (c Codec) IsInterframe() bool {
	return codecInfos[c].interframe
}

// Linesize returns the byte length of one image row of the given width.
// v210 packs pixels in 48-pixel groups of 128 bytes; everything else is
// width times bpp rounded up.
func Linesize(width int, c Codec) int {
	if c == V210 {
		return (width + 47) / 48 * 128
	}
	bpp := c.Bpp()
	if bpp == 0 {
		return 0
	}
	return int(float64(width)*bpp + 0.999999)
}
