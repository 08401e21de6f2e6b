// Package display defines the sink consuming decoded frames and two
// built-in implementations: an in-memory sink driving tests and tools,
// and a file sink writing raw frames to disk.
package display

import "github.com/openuv/videorx/pkg/video"

// PutFlag selects the blocking behavior of PutFrame.
type PutFlag int

const (
	// PutNonblock drops the frame when the sink is busy.
	PutNonblock PutFlag = iota
	// PutBlocking waits until the sink accepts the frame.
	PutBlocking
	// PutDiscard returns the framebuffer without presenting it.
	PutDiscard
)

// FBMode tells whether the display wants all tiles merged into one
// framebuffer or one framebuffer per tile.
type FBMode int

const (
	FBMerged FBMode = iota
	FBSeparateTiles
)

// PitchDefault makes the decoder derive the pitch from the line size.
const PitchDefault = 0

// Display is a video output device.
//
// GetFrame hands out a writable framebuffer; PutFrame returns it with
// (or without) presentation. At most one framebuffer is outstanding.
type Display interface {
	// Codecs lists native codecs in preference order.
	Codecs() []video.Codec
	// SupportedILModes lists interlacing modes the device can show.
	SupportedILModes() []video.Interlacing
	// FramebufferMode reports merged or per-tile framebuffers.
	FramebufferMode() FBMode
	// RGBShift returns the bit positions of R, G, B in output pixels.
	RGBShift() (r, g, b int)
	// Pitch returns bytes between row starts, or PitchDefault.
	Pitch() int

	// Reconfigure prepares the device for a new format.
	Reconfigure(desc video.Desc, mode video.Mode) bool
	// GetFrame acquires a writable framebuffer for the current format.
	GetFrame() *video.Frame
	// PutFrame presents (or discards) a framebuffer previously acquired
	// with GetFrame. Reports whether the frame was accepted for display.
	PutFrame(f *video.Frame, flag PutFlag) bool
}
