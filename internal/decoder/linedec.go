package decoder

import (
	"github.com/openuv/videorx/internal/codecreg"
	"github.com/openuv/videorx/pkg/video"
)

// lineDecoder writes one substream's payload bytes straight into the
// display framebuffer, converting pixel format per line. There is one
// per substream; baseOffset places the substream's tile inside a merged
// framebuffer.
type lineDecoder struct {
	baseOffset  int
	srcBpp      float64
	dstBpp      float64
	rgbShift    [3]int
	decodeLine  codecreg.TransformFunc
	srcLinesize int
	dstLinesize int
	dstPitch    int
}

// decodePacket copies one packet's payload into the framebuffer tile.
// dataPos is the payload's byte offset within the substream. A packet
// spanning several lines is split at line boundaries; writes past the
// tile are dropped (the caller warns). Returns whether anything was
// clipped.
func (ld *lineDecoder) decodePacket(tile *video.Tile, data []byte, dataPos int) bool {
	// Y position in the source frame, converted to a byte offset in the
	// destination frame.
	y := dataPos / ld.srcLinesize * ld.dstPitch

	// X position in the source frame and its byte offset from the line
	// start in the destination frame.
	sx := dataPos % ld.srcLinesize
	dx := int(float64(int(float64(sx)/ld.srcBpp)) * ld.dstBpp)

	length := len(data)
	src := data
	clipped := false

	for length > 0 {
		// Payload length converted from source to destination bpp, one
		// line at a time so v210 can clip and RGBA can center.
		l := int(float64(int(float64(length)/ld.srcBpp)) * ld.dstBpp)
		if l+dx > ld.dstLinesize {
			l = ld.dstLinesize - dx
		}

		offset := y + dx

		if l+ld.baseOffset+offset <= tile.DataLen {
			ld.decodeLine(tile.Data[ld.baseOffset+offset:], src, l,
				ld.rgbShift[0], ld.rgbShift[1], ld.rgbShift[2])
			advance := ld.srcLinesize - sx
			if advance > length {
				advance = length
			}
			length -= advance
			src = src[advance:]
		} else {
			clipped = true
			length = 0
		}

		// each new line continues from the beginning
		dx = 0
		sx = 0
		y += ld.dstPitch
	}
	return clipped
}

// decodeBuffer runs the transform across a whole recovered substream
// buffer (the FEC path, where the payload is contiguous).
func (ld *lineDecoder) decodeBuffer(tile *video.Tile, data []byte, dstLinesize int) {
	dst := tile.Data[ld.baseOffset:]
	src := data
	for len(src) >= ld.srcLinesize {
		if len(dst) < ld.dstLinesize {
			break
		}
		ld.decodeLine(dst, src[:ld.srcLinesize], ld.dstLinesize,
			ld.rgbShift[0], ld.rgbShift[1], ld.rgbShift[2])
		src = src[ld.srcLinesize:]
		dst = dst[dstLinesize:]
	}
}
