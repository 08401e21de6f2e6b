package decoder

import (
	"sync"
	"time"

	"github.com/openuv/videorx/internal/decompress"
	"github.com/openuv/videorx/internal/display"
	"github.com/openuv/videorx/pkg/video"
)

// decompressLoop is the terminal worker: it runs codec decompression
// (per tile, in parallel for multi-tile modes), applies interlacing
// conversion and presents the frame.
func (d *Decoder) decompressLoop() {
	defer close(d.decompressDone)

	for msg := range d.decompressQueue {
		if msg.recvFrame == nil { // poisoned
			msg.destroy()
			return
		}

		d.presentProcess(msg)
		d.signalFramebufferSwap()
		msg.destroy()
	}
}

// decompressTile decodes one tile into its place in the output
// framebuffer.
func (d *Decoder) decompressTile(frame *video.Frame, pos int, compressed *video.Frame, bufferNum int) decompress.Status {
	var out []byte
	if d.mergedFB {
		x := pos % d.videoMode.TilesX()
		y := pos / d.videoMode.TilesX()
		d.mu.Lock()
		tileWidth := d.receivedVidDesc.Width
		tileHeight := d.receivedVidDesc.Height
		d.mu.Unlock()
		out = frame.Tile(0).Data[y*d.pitch*tileHeight+video.Linesize(x*tileWidth, d.outCodec):]
	} else {
		out = frame.Tile(pos).Data
	}

	src := &compressed.Tiles[pos]
	if src.Data == nil {
		return decompress.NoFrame
	}
	return d.decompressState[pos].Decompress(out, src.Data[:src.DataLen], bufferNum)
}

func (d *Decoder) presentProcess(msg *frameMsg) {
	frame := d.currentFrame()
	if frame == nil {
		return
	}

	t0 := time.Now()

	if d.decType == typeExternal {
		tileCount := d.videoMode.Tiles()
		results := make([]decompress.Status, tileCount)

		if tileCount > 1 {
			var wg sync.WaitGroup
			for pos := 0; pos < tileCount; pos++ {
				wg.Add(1)
				go func(pos int) {
					defer wg.Done()
					results[pos] = d.decompressTile(frame, pos, msg.nofecFrame, int(msg.bufferNum[pos]))
				}(pos)
			}
			wg.Wait()
		} else {
			results[0] = d.decompressTile(frame, 0, msg.nofecFrame, int(msg.bufferNum[0]))
		}

		for pos := 0; pos < tileCount; pos++ {
			if results[pos] == decompress.GotFrame {
				continue
			}
			if results[pos] == decompress.CantDecode {
				if d.blacklistCurrentOutCodec() {
					d.mu.Lock()
					desc := d.receivedVidDesc
					d.mu.Unlock()
					d.requestReconfigure(&reconfigureRequest{desc: desc, force: true})
				}
			}
			return // skip presenting this frame
		}
	} else if frame.DecoderOverridesDataLen {
		for i := range frame.Tiles {
			frame.Tiles[i].DataLen = msg.nofecFrame.Tiles[i].DataLen
		}
	}

	msg.nanoPerFrameDecompress = uint64(time.Since(t0).Nanoseconds())

	if d.changeIL != nil {
		for i := range frame.Tiles {
			tile := frame.Tile(i)
			d.changeIL(tile.Data, tile.Data,
				video.Linesize(tile.Width, d.outCodec), tile.Height,
				&d.changeILState[i])
		}
	}

	putf := display.PutNonblock
	if d.dropPolicy == display.PutBlocking {
		putf = display.PutBlocking
	}

	frame.SSRC = msg.nofecFrame.SSRC
	if d.disp.PutFrame(frame, putf) {
		msg.isDisplayed = true
	}
	d.setCurrentFrame(d.disp.GetFrame())
}
