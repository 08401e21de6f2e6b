// Package decoder implements the receive-side video decoding pipeline:
// ingress parsing and line decoding on the caller's receive thread, a
// FEC worker reconstructing protected frames, and a decompress worker
// presenting frames to the display.
//
// Uncompressed streams without FEC are written line by line straight
// into the display framebuffer during ingress. Compressed or FEC
// protected payloads are accumulated into receive buffers and flow
// through the worker queues.
package decoder

import (
	"os"
	"sync"
	"time"

	"github.com/openuv/videorx/internal/codecreg"
	"github.com/openuv/videorx/internal/control"
	"github.com/openuv/videorx/internal/crypt"
	"github.com/openuv/videorx/internal/decompress"
	"github.com/openuv/videorx/internal/display"
	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/pkg/video"
)

// bufferPadding reserves safe over-read room at the end of receive
// buffers for codec libraries that read past the input.
const bufferPadding = 64

// decoderType selects how arriving data is decoded.
type decoderType int

const (
	typeUnset decoderType = iota
	// typeLine decodes incoming data per line (pixel formats only).
	typeLine
	// typeExternal hands the opaque buffer to a decompressor.
	typeExternal
)

// Options configure a Decoder.
type Options struct {
	Mode       video.Mode // expected substream geometry, ModeNormal if zero
	Encryption string     // decryption passphrase, empty for plaintext streams
	DropPolicy display.PutFlag
	Control    *control.Reporter
}

// Decoder is the per-stream decoding pipeline state.
type Decoder struct {
	ctrl *control.Reporter

	mu              sync.Mutex // guards receivedVidDesc and frame for cross-thread reads
	receivedVidDesc video.Desc
	displayDesc     video.Desc

	frame *video.Frame // display-owned framebuffer being filled

	disp         display.Display
	nativeCodecs []video.Codec
	supportedIL  []video.Interlacing

	videoMode     video.Mode
	maxSubstreams int

	decType          decoderType
	lineDecoders     []lineDecoder
	decompressState  []decompress.Decompressor
	acceptsCorrupted bool
	changeIL         codecreg.ChangeILFunc
	changeILState    [][]byte
	outCodec         video.Codec
	pitch            int
	mergedFB         bool

	// swapped carries the "framebuffer free" token: the decompress
	// stage sends it after reacquiring an output frame, ingress or the
	// FEC worker consume it before the first write of a frame.
	swapped chan struct{}

	fecQueue        chan *frameMsg
	decompressQueue chan *frameMsg
	fecDone         chan struct{}
	decompressDone  chan struct{}

	reconfMu sync.Mutex
	reconfQ  []*reconfigureRequest

	decrypt    *crypt.Decryptor
	dropPolicy display.PutFlag

	lastBufferNumber int64

	stats    cumulativeStats
	slowWarn *logger.Throttle
	fbWarn   *logger.Throttle

	fatalf func(format string, args ...interface{})
}

// New creates a decoder. The display must be registered before frames
// can be decoded.
func New(opts Options) (*Decoder, error) {
	d := &Decoder{
		ctrl:             opts.Control,
		dropPolicy:       opts.DropPolicy,
		lastBufferNumber: -1,
		swapped:          make(chan struct{}, 1),
		slowWarn:         logger.NewThrottle(5 * time.Second),
		fbWarn:           logger.NewThrottle(time.Second),
		fatalf: func(format string, args ...interface{}) {
			logger.Error("Decoder", format, args...)
			os.Exit(1)
		},
	}

	if opts.Encryption != "" {
		dec, err := crypt.New(opts.Encryption)
		if err != nil {
			return nil, err
		}
		d.decrypt = dec
	}

	mode := opts.Mode
	if mode == video.ModeUnknown {
		mode = video.ModeNormal
	}
	d.setVideoMode(mode)

	return d, nil
}

func (d *Decoder) setVideoMode(mode video.Mode) {
	d.videoMode = mode
	d.maxSubstreams = mode.Tiles()
}

// RegisterDisplay attaches the output device and starts the worker
// stages. No display may be attached already.
func (d *Decoder) RegisterDisplay(disp display.Display) {
	if disp == nil || d.disp != nil {
		panic("decoder: display already registered or nil")
	}
	d.disp = disp

	d.nativeCodecs = append([]video.Codec(nil), disp.Codecs()...)
	if len(d.nativeCodecs) == 0 {
		logger.Error("Decoder", "Display reports no native codecs")
	}

	d.supportedIL = append([]video.Interlacing(nil), disp.SupportedILModes()...)
	if len(d.supportedIL) == 0 {
		d.supportedIL = []video.Interlacing{
			video.Progressive, video.InterlacedMerged, video.SegmentedFrame,
		}
	}

	d.startThreads()
}

// RemoveDisplay stops the workers and returns the held framebuffer.
// No frames are decoded afterwards until a display is registered again.
func (d *Decoder) RemoveDisplay() {
	if d.disp == nil {
		return
	}
	d.stopThreads()
	d.ctrl.ReportEvent("RECV stream ended")
	if f := d.currentFrame(); f != nil {
		d.disp.PutFrame(f, display.PutDiscard)
		d.setCurrentFrame(nil)
	}
	d.disp = nil
	d.displayDesc = video.Desc{}
}

// Destroy tears the decoder down and logs the final statistics summary.
func (d *Decoder) Destroy() {
	d.RemoveDisplay()
	d.cleanupState()
	d.stats.lock.Lock()
	d.stats.print()
	d.stats.lock.Unlock()
}

// GetFormat returns the last seen stream descriptor. Safe to call from
// any goroutine; this is the control socket's "get_format" query.
func (d *Decoder) GetFormat() video.Desc {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.receivedVidDesc
}

// Stats returns a snapshot of the cumulative statistics.
func (d *Decoder) Stats() StatsSnapshot {
	return d.stats.snapshot()
}

func (d *Decoder) startThreads() {
	d.fecQueue = make(chan *frameMsg)
	d.decompressQueue = make(chan *frameMsg)
	d.fecDone = make(chan struct{})
	d.decompressDone = make(chan struct{})
	go d.fecLoop()
	go d.decompressLoop()
}

// stopThreads flushes the pipeline: the poison pill wakes the FEC
// worker, which forwards it to the decompress worker; both exit in
// order.
func (d *Decoder) stopThreads() {
	d.fecQueue <- newFrameMsg(d.ctrl, &d.stats)
	<-d.fecDone
	<-d.decompressDone
}

func (d *Decoder) cleanupState() {
	d.decType = typeUnset
	for _, s := range d.decompressState {
		if s != nil {
			s.Done()
		}
	}
	d.decompressState = nil
	d.lineDecoders = nil
	d.changeIL = nil
	d.changeILState = nil
}

// requestReconfigure enqueues a reconfiguration request drained at the
// top of the next ingress call.
func (d *Decoder) requestReconfigure(req *reconfigureRequest) {
	d.reconfMu.Lock()
	d.reconfQ = append(d.reconfQ, req)
	d.reconfMu.Unlock()
}

func (d *Decoder) popReconfigure() *reconfigureRequest {
	d.reconfMu.Lock()
	defer d.reconfMu.Unlock()
	if len(d.reconfQ) == 0 {
		return nil
	}
	req := d.reconfQ[0]
	d.reconfQ = d.reconfQ[1:]
	return req
}

// currentFrame reads the held framebuffer pointer. The framebuffer's
// contents are synchronized by the swap token; the pointer itself is
// updated by the decompress stage and must be read under the lock.
func (d *Decoder) currentFrame() *video.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

func (d *Decoder) setCurrentFrame(f *video.Frame) {
	d.mu.Lock()
	d.frame = f
	d.mu.Unlock()
}

// waitForFramebufferSwap consumes the framebuffer-free token, blocking
// until the decompress stage returned the previous frame.
func (d *Decoder) waitForFramebufferSwap() {
	<-d.swapped
}

// signalFramebufferSwap makes the framebuffer available to writers.
func (d *Decoder) signalFramebufferSwap() {
	select {
	case d.swapped <- struct{}{}:
	default:
	}
}

func (d *Decoder) drainSwapToken() {
	select {
	case <-d.swapped:
	default:
	}
}
