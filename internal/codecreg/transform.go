package codecreg

import "github.com/openuv/videorx/pkg/video"

// TransformFunc converts one line (or a part of one) between pixel
// formats. dst receives dstLen bytes; src is consumed at the source
// format's rate. The rgb shifts give the bit positions of the R, G and B
// channels requested by the display.
type TransformFunc func(dst, src []byte, dstLen int, rShift, gShift, bShift int)

// CopyLine is the identity transform for matching pixel formats.
func CopyLine(dst, src []byte, dstLen int, _, _, _ int) {
	copy(dst[:dstLen], src)
}

// CopyLineRGBA rewrites RGBA pixels honoring the display's channel shifts.
func CopyLineRGBA(dst, src []byte, dstLen int, rShift, gShift, bShift int) {
	for i := 0; i+4 <= dstLen && i+4 <= len(src); i += 4 {
		r, g, b := uint32(src[i]), uint32(src[i+1]), uint32(src[i+2])
		px := r<<rShift | g<<gShift | b<<bShift
		dst[i] = byte(px)
		dst[i+1] = byte(px >> 8)
		dst[i+2] = byte(px >> 16)
		dst[i+3] = byte(px >> 24)
	}
}

// CopyLineRGB rewrites RGB pixels honoring the display's channel shifts.
func CopyLineRGB(dst, src []byte, dstLen int, rShift, gShift, bShift int) {
	for i := 0; i+3 <= dstLen && i+3 <= len(src); i += 3 {
		r, g, b := uint32(src[i]), uint32(src[i+1]), uint32(src[i+2])
		px := r<<rShift | g<<gShift | b<<bShift
		dst[i] = byte(px)
		dst[i+1] = byte(px >> 8)
		dst[i+2] = byte(px >> 16)
	}
}

// rgbToRGBA expands 3-byte RGB to 4-byte RGBA with opaque alpha.
func rgbToRGBA(dst, src []byte, dstLen int, rShift, gShift, bShift int) {
	s := 0
	for d := 0; d+4 <= dstLen && s+3 <= len(src); d += 4 {
		r, g, b := uint32(src[s]), uint32(src[s+1]), uint32(src[s+2])
		px := r<<rShift | g<<gShift | b<<bShift
		dst[d] = byte(px)
		dst[d+1] = byte(px >> 8)
		dst[d+2] = byte(px >> 16)
		dst[d+3] = 0xff
		s += 3
	}
}

// rgbaToRGB drops the alpha channel.
func rgbaToRGB(dst, src []byte, dstLen int, rShift, gShift, bShift int) {
	s := 0
	for d := 0; d+3 <= dstLen && s+4 <= len(src); d += 3 {
		r, g, b := uint32(src[s]), uint32(src[s+1]), uint32(src[s+2])
		px := r<<rShift | g<<gShift | b<<bShift
		dst[d] = byte(px)
		dst[d+1] = byte(px >> 8)
		dst[d+2] = byte(px >> 16)
		s += 4
	}
}

// bgrToRGB swaps the blue and red channels.
func bgrToRGB(dst, src []byte, dstLen int, _, _, _ int) {
	for i := 0; i+3 <= dstLen && i+3 <= len(src); i += 3 {
		b, g, r := src[i], src[i+1], src[i+2]
		dst[i] = r
		dst[i+1] = g
		dst[i+2] = b
	}
}

func clamp8(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// uyvyToRGBA converts packed 4:2:2 YCbCr to RGBA (BT.601 full range).
func uyvyToRGBA(dst, src []byte, dstLen int, rShift, gShift, bShift int) {
	s := 0
	for d := 0; d+8 <= dstLen && s+4 <= len(src); d += 8 {
		u := int32(src[s]) - 128
		y0 := int32(src[s+1])
		v := int32(src[s+2]) - 128
		y1 := int32(src[s+3])
		s += 4

		for j, y := range [2]int32{y0, y1} {
			r := uint32(clamp8(y + (351*v)>>8))
			g := uint32(clamp8(y - (86*u+179*v)>>8))
			b := uint32(clamp8(y + (443*u)>>8))
			px := r<<rShift | g<<gShift | b<<bShift
			o := d + j*4
			dst[o] = byte(px)
			dst[o+1] = byte(px >> 8)
			dst[o+2] = byte(px >> 16)
			dst[o+3] = 0xff
		}
	}
}

// uyvyToRGB converts packed 4:2:2 YCbCr to 24-bit RGB.
func uyvyToRGB(dst, src []byte, dstLen int, rShift, gShift, bShift int) {
	s := 0
	for d := 0; d+6 <= dstLen && s+4 <= len(src); d += 6 {
		u := int32(src[s]) - 128
		y0 := int32(src[s+1])
		v := int32(src[s+2]) - 128
		y1 := int32(src[s+3])
		s += 4

		for j, y := range [2]int32{y0, y1} {
			r := uint32(clamp8(y + (351*v)>>8))
			g := uint32(clamp8(y - (86*u+179*v)>>8))
			b := uint32(clamp8(y + (443*u)>>8))
			px := r<<rShift | g<<gShift | b<<bShift
			o := d + j*3
			dst[o] = byte(px)
			dst[o+1] = byte(px >> 8)
			dst[o+2] = byte(px >> 16)
		}
	}
}

// v210ToUYVY unpacks 10-bit v210 groups to 8-bit UYVY. Each 16-byte v210
// group holds 6 pixels; the top 8 bits of each 10-bit component are kept.
func v210ToUYVY(dst, src []byte, dstLen int, _, _, _ int) {
	s := 0
	d := 0
	for d+12 <= dstLen && s+16 <= len(src) {
		for w := 0; w < 4; w++ {
			word := uint32(src[s]) | uint32(src[s+1])<<8 |
				uint32(src[s+2])<<16 | uint32(src[s+3])<<24
			s += 4
			dst[d] = byte(word >> 2)
			dst[d+1] = byte(word >> 12)
			dst[d+2] = byte(word >> 22)
			d += 3
		}
	}
}

// r10kToRGBA narrows 10-bit RGB to 8-bit RGBA.
func r10kToRGBA(dst, src []byte, dstLen int, rShift, gShift, bShift int) {
	s := 0
	for d := 0; d+4 <= dstLen && s+4 <= len(src); d += 4 {
		word := uint32(src[s])<<24 | uint32(src[s+1])<<16 |
			uint32(src[s+2])<<8 | uint32(src[s+3])
		s += 4
		r := (word >> 24) & 0xff // top 8 of the 10-bit channel
		g := (word >> 14) & 0xff
		b := (word >> 4) & 0xff
		px := r<<rShift | g<<gShift | b<<bShift
		dst[d] = byte(px)
		dst[d+1] = byte(px >> 8)
		dst[d+2] = byte(px >> 16)
		dst[d+3] = 0xff
	}
}

type transformKey struct {
	src, dst video.Codec
}

type transformEntry struct {
	fn   TransformFunc
	slow bool
}

var transforms = map[transformKey]transformEntry{
	{video.RGB, video.RGBA}:  {rgbToRGBA, false},
	{video.RGBA, video.RGB}:  {rgbaToRGB, false},
	{video.BGR, video.RGB}:   {bgrToRGB, false},
	{video.UYVY, video.RGBA}: {uyvyToRGBA, true},
	{video.UYVY, video.RGB}:  {uyvyToRGB, true},
	{video.V210, video.UYVY}: {v210ToUYVY, true},
	{video.R10k, video.RGBA}: {r10kToRGBA, true},
}

// GetTransform resolves a line transform from src to dst pixel format.
// Slow (per-pixel computing) transforms are only returned when includeSlow
// is set. Nil means no registered path.
func GetTransform(src, dst video.Codec, includeSlow bool) TransformFunc {
	entry, ok := transforms[transformKey{src, dst}]
	if !ok || (entry.slow && !includeSlow) {
		return nil
	}
	return entry.fn
}
