package decoder

import (
	"time"

	"github.com/openuv/videorx/internal/fec"
	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/pkg/video"
)

// fecLoop is the FEC worker: it reconstructs original payloads from
// received block fragments and produces the no-FEC view of each frame.
// The poison pill is forwarded to the decompress queue so both workers
// exit in order.
func (d *Decoder) fecLoop() {
	defer close(d.fecDone)

	var (
		engine  fec.Engine
		fecDesc video.FECParams
	)

	for msg := range d.fecQueue {
		if msg.recvFrame == nil { // poisoned
			d.decompressQueue <- msg
			return
		}

		if !d.fecProcess(msg, &engine, &fecDesc) {
			continue
		}
		d.decompressQueue <- msg
	}
}

// fecProcess handles one frame message. False means the message was
// consumed here (dropped or handed to a reconfiguration request) and
// must not be forwarded.
func (d *Decoder) fecProcess(msg *frameMsg, engine *fec.Engine, fecDesc *video.FECParams) bool {
	frame := d.currentFrame()
	t0 := time.Now()

	params := msg.recvFrame.FECParams
	if params.Type != video.FECNone {
		if *engine == nil || *fecDesc != params {
			e, err := fec.CreateFromDesc(params)
			if err != nil {
				d.fatalf("Unable to initialize FEC: %v", err)
				return false
			}
			*engine = e
			*fecDesc = params
		}
	}

	msg.nofecFrame = video.NewFrame(len(msg.recvFrame.Tiles))
	msg.nofecFrame.SSRC = msg.recvFrame.SSRC

	if params.Type != video.FECNone {
		bufferSwapped := false
		for pos := 0; pos < d.videoMode.Tiles(); pos++ {
			tile := &msg.recvFrame.Tiles[pos]

			received := sumMap(msg.pktList[pos])
			if tile.DataLen != received {
				logger.Debug("Decoder", "Frame incomplete - substream %d, buffer %d: expected %d bytes, got %d.",
					pos, msg.bufferNum[pos], tile.DataLen, received)
			}

			out, outLen := (*engine).Decode(tile.Data, tile.DataLen, msg.pktList[pos])
			if outLen == 0 {
				logger.Debug("Decoder", "FEC: unable to reconstruct data.")
				msg.isCorrupted = true
				msg.destroy()
				return false
			}

			// The first word of the recovered payload is the inner
			// video header.
			desc, err := ParseVideoHeader(out)
			if err != nil {
				logger.Warn("Decoder", "FEC inner header: %v", err)
				msg.isCorrupted = true
				msg.destroy()
				return false
			}
			d.mu.Lock()
			descChanged := !d.receivedVidDesc.EqExclTileCount(desc)
			d.mu.Unlock()
			if descChanged {
				d.requestReconfigure(&reconfigureRequest{desc: desc, lastFrame: msg})
				return false
			}

			if frame == nil {
				msg.destroy()
				return false
			}

			payload := out[VideoHdrLen:outLen]
			if d.decType == typeExternal {
				msg.nofecFrame.Tiles[pos].Data = payload
				msg.nofecFrame.Tiles[pos].DataLen = len(payload)
			} else { // line decoder
				if !bufferSwapped {
					bufferSwapped = true
					d.waitForFramebufferSwap()
					frame = d.currentFrame()
				}

				divisor := d.maxSubstreams
				if d.mergedFB {
					divisor = 1
				}
				fbTile := frame.Tile(pos % divisor)

				ld := &d.lineDecoders[pos]
				ld.decodeBuffer(fbTile, payload,
					video.Linesize(fbTile.Width, frame.ColorSpec))
			}
		}
	} else { // plain video
		for i := 0; i < d.maxSubstreams; i++ {
			msg.nofecFrame.Tiles[i].Data = msg.recvFrame.Tiles[i].Data
			msg.nofecFrame.Tiles[i].DataLen = msg.recvFrame.Tiles[i].DataLen

			received := sumMap(msg.pktList[i])
			if msg.recvFrame.Tiles[i].DataLen != received {
				logger.Debug("Decoder", "Frame incomplete - substream %d, buffer %d: expected %d bytes, got %d.",
					i, msg.bufferNum[i], msg.recvFrame.Tiles[i].DataLen, received)
				msg.isCorrupted = true
				if d.decType == typeExternal && !d.acceptsCorrupted {
					msg.destroy()
					return false
				}
			}
		}
	}

	msg.nanoPerFrameErrorCorrection = uint64(time.Since(t0).Nanoseconds())
	return true
}
