package decompress

import "github.com/openuv/videorx/pkg/video"

// Passthrough copies already-raw tile data into the destination buffer
// line by line, honoring the display pitch. It stands in for real codec
// bindings in tests and for streams whose payload is raw pixels wrapped
// in a compressed-stream container.
type Passthrough struct {
	linesize int
	height   int
	pitch    int
}

// NewPassthrough is a Factory.
func NewPassthrough() Decompressor {
	return &Passthrough{}
}

func (p *Passthrough) Reconfigure(desc video.Desc, _, _, _, pitch int, out video.Codec) int {
	p.linesize = video.Linesize(desc.Width, out)
	p.height = desc.Height
	p.pitch = pitch
	if p.linesize == 0 || p.height == 0 {
		return 0
	}
	return p.pitch * p.height
}

func (p *Passthrough) Decompress(dst, src []byte, _ int) Status {
	for y := 0; y < p.height; y++ {
		lo := y * p.linesize
		if lo >= len(src) {
			break
		}
		hi := lo + p.linesize
		if hi > len(src) {
			hi = len(src)
		}
		copy(dst[y*p.pitch:], src[lo:hi])
	}
	return GotFrame
}

func (p *Passthrough) AcceptsCorruptedFrame() bool { return true }

func (p *Passthrough) Done() {}
