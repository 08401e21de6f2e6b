// Package decompress defines the contract with external video
// decompressors and a process-wide registry resolving them by codec pair.
package decompress

import (
	"sync"

	"github.com/openuv/videorx/pkg/video"
)

// Status is the outcome of one Decompress call.
type Status int

const (
	// GotFrame means dst holds a complete decoded picture.
	GotFrame Status = iota
	// NoFrame means the codec needs more data before producing output.
	NoFrame
	// CantDecode means this decompressor cannot handle the stream; the
	// caller should pick another output codec.
	CantDecode
)

func (s Status) String() string {
	switch s {
	case GotFrame:
		return "got-frame"
	case NoFrame:
		return "no-frame"
	case CantDecode:
		return "cant-decode"
	default:
		return "unknown"
	}
}

// Decompressor turns an opaque compressed tile into raw pixels.
// Implementations are per-substream; they are never called concurrently
// on the same instance.
type Decompressor interface {
	// Reconfigure prepares the instance for a stream format and returns
	// the required destination buffer size. Zero means the configuration
	// is not supported.
	Reconfigure(desc video.Desc, rShift, gShift, bShift, pitch int, out video.Codec) int
	// Decompress decodes src into dst. frameSeq is the stream's buffer
	// number, used by interframe codecs to detect discontinuities.
	Decompress(dst, src []byte, frameSeq int) Status
	// AcceptsCorruptedFrame reports whether incomplete input may still
	// be fed to this decompressor.
	AcceptsCorruptedFrame() bool
	// Done releases codec resources.
	Done()
}

// Factory creates one decompressor instance.
type Factory func() Decompressor

var (
	regMu    sync.RWMutex
	registry = map[[2]video.Codec]Factory{}
)

// Register announces a decompressor for a (source, output) codec pair.
func Register(src, out video.Codec, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[[2]video.Codec{src, out}] = f
}

// InitMulti creates count instances decoding src to out, one per
// substream. Returns nil when no decompressor advertises the pair.
func InitMulti(src, out video.Codec, count int) []Decompressor {
	regMu.RLock()
	f, ok := registry[[2]video.Codec{src, out}]
	regMu.RUnlock()
	if !ok {
		return nil
	}
	states := make([]Decompressor, count)
	for i := range states {
		states[i] = f()
	}
	return states
}
