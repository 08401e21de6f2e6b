package display

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/openuv/videorx/pkg/video"
)

// MemDisplay is an in-memory display sink. Presented frames are queued on
// a bounded channel for a consumer (tests, tools); a
// full queue exercises the decoder's backpressure paths exactly like a
// stalled output device.
type MemDisplay struct {
	mu   sync.Mutex
	desc video.Desc
	mode video.Mode

	codecs  []video.Codec
	ilModes []video.Interlacing
	fbMode  FBMode
	pitch   int

	queue chan *video.Frame
	free  chan *video.Frame

	Displayed atomic.Uint64
	Dropped   atomic.Uint64
}

// MemConfig tunes a MemDisplay.
type MemConfig struct {
	Codecs   []video.Codec
	ILModes  []video.Interlacing
	FBMode   FBMode
	Pitch    int
	QueueLen int
}

// NewMem creates an in-memory display.
func NewMem(cfg MemConfig) *MemDisplay {
	if len(cfg.Codecs) == 0 {
		cfg.Codecs = []video.Codec{video.UYVY, video.RGBA, video.RGB}
	}
	if len(cfg.ILModes) == 0 {
		cfg.ILModes = []video.Interlacing{video.Progressive, video.InterlacedMerged, video.SegmentedFrame}
	}
	if cfg.QueueLen == 0 {
		cfg.QueueLen = 2
	}
	return &MemDisplay{
		codecs:  cfg.Codecs,
		ilModes: cfg.ILModes,
		fbMode:  cfg.FBMode,
		pitch:   cfg.Pitch,
		queue:   make(chan *video.Frame, cfg.QueueLen),
		free:    make(chan *video.Frame, cfg.QueueLen+2),
	}
}

func (m *MemDisplay) Codecs() []video.Codec                 { return m.codecs }
func (m *MemDisplay) SupportedILModes() []video.Interlacing { return m.ilModes }
func (m *MemDisplay) FramebufferMode() FBMode               { return m.fbMode }
func (m *MemDisplay) RGBShift() (int, int, int)             { return 0, 8, 16 }
func (m *MemDisplay) Pitch() int                            { return m.pitch }

// SetCodecs replaces the native codec list.
func (m *MemDisplay) SetCodecs(codecs []video.Codec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codecs = codecs
}

func (m *MemDisplay) Reconfigure(desc video.Desc, mode video.Mode) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.desc = desc
	m.mode = mode
	// Drop framebuffers of the previous geometry.
	for {
		select {
		case <-m.free:
			continue
		default:
		}
		break
	}
	return true
}

func (m *MemDisplay) allocFrame() *video.Frame {
	m.mu.Lock()
	desc := m.desc
	m.mu.Unlock()

	f := video.NewFrame(desc.TileCount)
	f.ColorSpec = desc.ColorSpec
	f.Interlacing = desc.Interlacing
	f.FPS = desc.FPS
	pitch := m.pitch
	if pitch == PitchDefault {
		pitch = video.Linesize(desc.Width, desc.ColorSpec)
	}
	for i := range f.Tiles {
		f.Tiles[i].Width = desc.Width
		f.Tiles[i].Height = desc.Height
		f.Tiles[i].Data = make([]byte, pitch*desc.Height)
		f.Tiles[i].DataLen = len(f.Tiles[i].Data)
	}
	return f
}

func (m *MemDisplay) GetFrame() *video.Frame {
	select {
	case f := <-m.free:
		return f
	default:
		return m.allocFrame()
	}
}

func (m *MemDisplay) PutFrame(f *video.Frame, flag PutFlag) bool {
	switch flag {
	case PutDiscard:
		select {
		case m.free <- f:
		default:
		}
		return false
	case PutBlocking:
		m.queue <- f
		m.Displayed.Add(1)
		return true
	default: // PutNonblock
		select {
		case m.queue <- f:
			m.Displayed.Add(1)
			return true
		default:
			m.Dropped.Add(1)
			select {
			case m.free <- f:
			default:
			}
			return false
		}
	}
}

// Frames exposes the presented-frame queue to the consumer. Returning a
// frame to the display is not required; unconsumed buffers are garbage
// collected.
func (m *MemDisplay) Frames() <-chan *video.Frame {
	return m.queue
}
