package decoder

import (
	"time"

	"github.com/pkg/errors"

	"github.com/openuv/videorx/internal/crypt"
	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/pkg/video"
)

// DecodeFrame decodes one reassembled participant buffer representing a
// single video frame. It runs on the caller's receive thread: headers
// are parsed, payload is decrypted, uncompressed lines go straight into
// the display framebuffer and everything else is accumulated and handed
// to the FEC worker.
//
// A true return means the frame entered the pipeline; it may still be
// dropped in a later (asynchronous) stage.
func (d *Decoder) DecodeFrame(packets []CodedPacket, pbuf *PbufStats) bool {
	if d.disp == nil {
		return false
	}

	// Drain pending reconfiguration requests from the worker stages.
	for req := d.popReconfigure(); req != nil; req = d.popReconfigure() {
		d.reconfigureIfNeeded(req.desc, req.force)
		if req.lastFrame != nil {
			d.fecQueue <- req.lastFrame
		}
	}

	if len(packets) == 0 {
		return false
	}

	maxSubstreams := d.maxSubstreams
	recvFrame := video.NewFrame(maxSubstreams)
	recvFrame.DataDeleter = func(f *video.Frame) {
		for i := range f.Tiles {
			f.Tiles[i].Data = nil
		}
	}
	pktList := make([]map[int]int, maxSubstreams)
	for i := range pktList {
		pktList[i] = make(map[int]int)
	}
	bufferNum := make([]uint32, maxSubstreams)

	var (
		ok            = true
		pushed        bool
		pt            uint8
		ssrc          uint32
		fecParams     video.FECParams
		bufferNumber  uint32
		bufferSwapped bool
	)

	for _, pckt := range packets {
		pt = pckt.PT
		ssrc = pckt.SSRC

		if len(pckt.Data) < VideoHdrLen {
			logger.Warn("Decoder", "Runt packet: %d bytes", len(pckt.Data))
			ok = false
			break
		}
		hdr := pckt.Data[:VideoHdrLen]
		w0 := be32(hdr)
		substream := int(w0 >> 22)
		bufferNumber = w0 & 0x3fffff
		dataPos := int(be32(hdr[4:]))
		bufferLength := int(be32(hdr[8:]))

		if PTHasFEC(pt) {
			fecParams = parseFECParams(hdr, pt)
		}

		if PTIsEncrypted(pt) {
			if d.decrypt == nil {
				logger.Error("Decoder", "Receiving encrypted video data but no decryption key entered!")
				d.ctrl.ReportEvent("RECV error - encrypted stream without key")
				ok = false
				break
			}
		} else if d.decrypt != nil {
			logger.Error("Decoder", "Receiving unencrypted video data while expecting encrypted.")
			d.ctrl.ReportEvent("RECV error - unencrypted stream with key configured")
			ok = false
			break
		}

		var payload []byte
		var cryptoMode crypt.Mode
		switch pt {
		case PTVideo:
			payload = pckt.Data[VideoHdrLen:]
		case PTVideoRS, PTVideoLDGM:
			payload = pckt.Data[FECHdrLen:]
		case PTEncryptVideo, PTEncryptVideoRS, PTEncryptVideoLDGM:
			if len(pckt.Data) < VideoHdrLen+CryptoHdrLen {
				logger.Warn("Decoder", "Runt encrypted packet: %d bytes", len(pckt.Data))
				ok = false
			} else {
				cryptoMode = crypt.Mode(be32(pckt.Data[VideoHdrLen:]) >> 24)
				if cryptoMode == crypt.ModeNone || cryptoMode > crypt.ModeMax {
					logger.Warn("Decoder", "Unknown cipher mode: %d", cryptoMode)
					ok = false
				} else {
					payload = pckt.Data[VideoHdrLen+CryptoHdrLen:]
				}
			}
		default:
			logger.Warn("Decoder", "Unknown packet type: %d.", pt)
			ok = false
		}
		if !ok {
			break
		}

		if substream >= maxSubstreams {
			logger.Warn("Decoder", "Received substream ID %d. Expecting at most %d substreams.",
				substream, maxSubstreams)
			// The guess is valid since the highest substream index is
			// seen on every frame; next iteration indexes are in range.
			mode := video.GuessMode(substream + 1)
			if mode == video.ModeUnknown {
				d.fatalf("Unknown video mode for %d substreams", substream+1)
				return false
			}
			logger.Info("Decoder", "Guessing video mode: %s. Check if it is correct.", mode)
			d.setVideoMode(mode)
			d.mu.Lock()
			d.receivedVidDesc.Width = 0 // force reconfigure on the next frame
			d.mu.Unlock()
			ok = false
			break
		}

		if PTIsEncrypted(pt) {
			plain, err := d.decrypt.Decrypt(payload, hdr, cryptoMode)
			if err != nil {
				if errors.Is(err, crypt.ErrAuth) {
					logger.Debug("Decoder", "Packet dropped AES - wrong CRC!")
					continue
				}
				logger.Warn("Decoder", "Decrypt: %v", err)
				ok = false
				break
			}
			payload = plain
		}

		if !PTHasFEC(pt) {
			if err := d.checkForModeChange(hdr); err != nil {
				logger.Error("Decoder", "%v", err)
				ok = false
				break
			}
			// Hereafter the display framebuffer may be used, so check
			// we actually have one.
			if d.currentFrame() == nil {
				recvFrame.Free()
				return false
			}
		}

		bufferNum[substream] = bufferNumber
		recvFrame.Tiles[substream].DataLen = bufferLength
		pktList[substream][dataPos] = len(payload)

		if (pt == PTVideo || pt == PTEncryptVideo) && d.decType == typeLine {
			if !bufferSwapped {
				d.waitForFramebufferSwap()
				bufferSwapped = true
			}

			frame := d.currentFrame()
			var tile *video.Tile
			if d.mergedFB {
				tile = frame.Tile(0)
			} else {
				tile = frame.Tile(substream)
			}

			ld := &d.lineDecoders[substream]
			if ld.decodePacket(tile, payload, dataPos) {
				d.fbWarn.Warn("Decoder", "Discarding input data as frame buffer is too small.")
			}
		} else { // FEC protected or external decoder
			tile := &recvFrame.Tiles[substream]
			if tile.Data == nil {
				tile.Data = make([]byte, bufferLength+bufferPadding)
			}
			if dataPos+len(payload) <= len(tile.Data) {
				copy(tile.Data[dataPos:], payload)
			} else {
				d.fbWarn.Warn("Decoder", "Packet at offset %d overruns buffer of %d bytes.",
					dataPos, bufferLength)
			}
		}
	}

	if ok && d.currentFrame() == nil && (pt == PTVideo || pt == PTEncryptVideo) {
		ok = false
	}

	if ok {
		msg := newFrameMsg(d.ctrl, &d.stats)
		msg.bufferNum = bufferNum
		msg.recvFrame = recvFrame
		msg.recvFrame.FECParams = fecParams
		msg.recvFrame.SSRC = ssrc
		msg.pktList = pktList
		if pbuf != nil {
			msg.receivedPktsCum = pbuf.ReceivedPktsCum
			msg.expectedPktsCum = pbuf.ExpectedPktsCum
		}
		if f := d.currentFrame(); f != nil && f.FPS > 0 {
			msg.nanoPerFrameExpected = uint64(1e9 / f.FPS)
		}

		t0 := time.Now()
		d.fecQueue <- msg
		if fps := d.displayDesc.FPS; fps > 0 {
			d.stats.lock.Lock()
			displayed := d.stats.displayed
			d.stats.lock.Unlock()
			if time.Since(t0).Seconds() > 1/fps && displayed > 20 {
				d.slowWarn.Warn("Decoder", "Your computer may be too SLOW to play this !!!")
			}
		}
		pushed = true
	}

	if !pushed {
		recvFrame.Free()
	}

	// Missing-frame accounting over the 22-bit wrap-around buffer id.
	if d.lastBufferNumber != -1 {
		missing := (int64(bufferNumber) - (d.lastBufferNumber+1)&0x3fffff + 0x3fffff) % 0x3fffff
		d.stats.lock.Lock()
		if missing < 0x3fffff/2 {
			d.stats.missing += uint64(missing)
		} else { // frames may have been reordered, add arbitrary 1
			d.stats.missing++
		}
		d.stats.lock.Unlock()
	}
	d.lastBufferNumber = int64(bufferNumber)

	if pbuf != nil {
		if size := recvFrame.DataLen(); size > pbuf.MaxFrameSize {
			pbuf.MaxFrameSize = size
		}
		pbuf.Decoded++
	}

	return ok
}

// checkForModeChange parses the packet header and reconfigures if the
// network format changed.
func (d *Decoder) checkForModeChange(hdr []byte) error {
	desc, err := ParseVideoHeader(hdr)
	if err != nil {
		return err
	}
	d.reconfigureIfNeeded(desc, false)
	return nil
}
