package display

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/pkg/video"
)

// FileDisplay writes presented frames to a raw file, one frame after
// another. It is the headless stand-in for a real output device and
// doubles as a capture tool.
type FileDisplay struct {
	mu           sync.RWMutex
	file         *os.File
	filename     string
	basePath     string
	desc         video.Desc
	frameCount   uint64
	bytesWritten uint64
	startTime    time.Time
}

// NewFile creates a file display writing under basePath.
func NewFile(basePath string) *FileDisplay {
	return &FileDisplay{basePath: basePath}
}

func (d *FileDisplay) Codecs() []video.Codec {
	return []video.Codec{video.UYVY, video.RGBA, video.RGB}
}

func (d *FileDisplay) SupportedILModes() []video.Interlacing {
	return []video.Interlacing{video.Progressive, video.InterlacedMerged, video.SegmentedFrame}
}

func (d *FileDisplay) FramebufferMode() FBMode   { return FBMerged }
func (d *FileDisplay) RGBShift() (int, int, int) { return 0, 8, 16 }
func (d *FileDisplay) Pitch() int                { return PitchDefault }

func (d *FileDisplay) Reconfigure(desc video.Desc, mode video.Mode) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file != nil {
		d.file.Close()
		d.file = nil
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("capture_%s_%dx%d_%s.raw", timestamp,
		desc.Width, desc.Height, desc.ColorSpec)
	path := filepath.Join(d.basePath, filename)

	file, err := os.Create(path)
	if err != nil {
		logger.Error("FileDisplay", "Failed to create %s: %v", path, err)
		return false
	}

	d.file = file
	d.filename = filename
	d.desc = desc
	d.frameCount = 0
	d.bytesWritten = 0
	d.startTime = time.Now()
	logger.Info("FileDisplay", "Writing %s frames to %s", desc, filename)
	return true
}

func (d *FileDisplay) GetFrame() *video.Frame {
	d.mu.RLock()
	desc := d.desc
	d.mu.RUnlock()

	f := video.NewFrame(desc.TileCount)
	f.ColorSpec = desc.ColorSpec
	f.Interlacing = desc.Interlacing
	f.FPS = desc.FPS
	for i := range f.Tiles {
		f.Tiles[i].Width = desc.Width
		f.Tiles[i].Height = desc.Height
		f.Tiles[i].Data = make([]byte, video.Linesize(desc.Width, desc.ColorSpec)*desc.Height)
		f.Tiles[i].DataLen = len(f.Tiles[i].Data)
	}
	return f
}

func (d *FileDisplay) PutFrame(f *video.Frame, flag PutFlag) bool {
	if flag == PutDiscard {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return false
	}

	for i := range f.Tiles {
		n, err := d.file.Write(f.Tiles[i].Data[:f.Tiles[i].DataLen])
		if err != nil {
			logger.Error("FileDisplay", "Write failed: %v", err)
			return false
		}
		d.bytesWritten += uint64(n)
	}
	d.frameCount++
	return true
}

// Status reports what has been written so far.
func (d *FileDisplay) Status() (filename string, frames, bytes uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filename, d.frameCount, d.bytesWritten
}

// Close flushes and closes the capture file.
func (d *FileDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	if err := d.file.Sync(); err != nil {
		return err
	}
	err := d.file.Close()
	d.file = nil
	return err
}
