package decoder

import (
	"fmt"

	"github.com/openuv/videorx/internal/codecreg"
	"github.com/openuv/videorx/internal/decompress"
	"github.com/openuv/videorx/internal/display"
	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/pkg/video"
)

// reconfigureIfNeeded reconfigures the pipeline when the network format
// differs from the current one (tile count excluded, it is inferred) or
// when forced. Runs only on the ingress context.
func (d *Decoder) reconfigureIfNeeded(desc video.Desc, force bool) bool {
	d.mu.Lock()
	changed := !d.receivedVidDesc.EqExclTileCount(desc)
	d.mu.Unlock()

	if !changed && !force {
		return false
	}

	if changed {
		logger.Info("Decoder", "New incoming video format detected: %s", desc)
		d.ctrl.ReportEvent(fmt.Sprintf("RECV received video changed - %s", desc))
		d.mu.Lock()
		d.receivedVidDesc = desc
		d.mu.Unlock()
	}
	if force {
		logger.Debug("Decoder", "forced reconfiguration")
	}

	if !d.reconfigure(d.receivedVidDesc) {
		logger.Error("Decoder", "Reconfiguration failed!!!")
		d.setCurrentFrame(nil)
	}
	return true
}

// reconfigure rebuilds the whole decode path for a new stream format.
func (d *Decoder) reconfigure(desc video.Desc) bool {
	// Flush the pipelined data: both workers join on the poison pill,
	// the held framebuffer goes back to the display unpresented.
	d.stopThreads()
	if f := d.currentFrame(); f != nil {
		d.disp.PutFrame(f, display.PutDiscard)
		d.setCurrentFrame(nil)
	}
	d.startThreads()

	d.cleanupState()
	d.drainSwapToken()

	desc.TileCount = d.videoMode.Tiles()

	outCodec, decodeLine := d.chooseCodecAndDecoder(desc)
	if outCodec == video.CodecNone {
		return false
	}
	d.outCodec = outCodec

	displayDesc := desc
	fbMode := d.disp.FramebufferMode()
	if fbMode == display.FBMerged {
		displayDesc.Width *= d.videoMode.TilesX()
		displayDesc.Height *= d.videoMode.TilesY()
		displayDesc.TileCount = 1
	}

	changeIL, displayIL, found := codecreg.SelectILFunc(desc.Interlacing, d.supportedIL)
	if !found {
		logger.Warn("Decoder", "Cannot find transition between incoming and display interlacing modes!")
	}
	d.changeIL = changeIL
	d.changeILState = make([][]byte, d.maxSubstreams)

	displayDesc.ColorSpec = outCodec
	displayDesc.Interlacing = displayIL

	if !d.displayDesc.Eq(displayDesc) {
		if !d.disp.Reconfigure(displayDesc, d.videoMode) {
			logger.Error("Decoder", "Unable to reconfigure display to %s", displayDesc)
			return false
		}
		logger.Debug("Decoder", "Successfully reconfigured display to %s", displayDesc)
		d.displayDesc = displayDesc
	}

	rShift, gShift, bShift := d.disp.RGBShift()

	linewidth := desc.Width
	if fbMode != display.FBSeparateTiles {
		linewidth = desc.Width * d.videoMode.TilesX()
	}
	if p := d.disp.Pitch(); p == display.PitchDefault {
		d.pitch = video.Linesize(linewidth, outCodec)
	} else {
		d.pitch = p
	}

	srcXTiles := d.videoMode.TilesX()
	srcYTiles := d.videoMode.TilesY()

	switch d.decType {
	case typeLine:
		d.lineDecoders = make([]lineDecoder, srcXTiles*srcYTiles)
		for x := 0; x < srcXTiles; x++ {
			for y := 0; y < srcYTiles; y++ {
				out := &d.lineDecoders[x+srcXTiles*y]
				out.srcBpp = desc.ColorSpec.Bpp()
				out.dstBpp = outCodec.Bpp()
				out.rgbShift = [3]int{rShift, gShift, bShift}
				out.decodeLine = decodeLine
				out.dstPitch = d.pitch
				out.srcLinesize = video.Linesize(desc.Width, desc.ColorSpec)
				out.dstLinesize = video.Linesize(desc.Width, outCodec)
				if fbMode == display.FBMerged {
					out.baseOffset = y*desc.Height*d.pitch +
						video.Linesize(x*desc.Width, outCodec)
				} else {
					out.baseOffset = 0
					out.dstPitch = out.dstLinesize
				}
			}
		}
		d.mergedFB = fbMode == display.FBMerged
	case typeExternal:
		for i := 0; i < d.maxSubstreams; i++ {
			bufSize := d.decompressState[i].Reconfigure(desc, rShift, gShift, bShift,
				d.pitch, outCodec)
			if bufSize == 0 {
				return false
			}
		}
		d.mergedFB = fbMode != display.FBSeparateTiles
	}

	// Tell the upstream receiver subsystem the stream properties changed
	// so it can resize its packet buffers.
	d.ctrl.ReportEvent(fmt.Sprintf("RECV stream properties changed - %s", desc))

	d.setCurrentFrame(d.disp.GetFrame())
	d.signalFramebufferSwap()

	return true
}

// chooseCodecAndDecoder selects, in priority order against the display's
// native codec list: a direct pixel format match, a fast line transform,
// a slow line transform, and finally an external decompressor. The first
// match fixes the decoder type and output codec.
func (d *Decoder) chooseCodecAndDecoder(desc video.Desc) (video.Codec, codecreg.TransformFunc) {
	for _, native := range d.nativeCodecs {
		if desc.ColorSpec != native || native == video.CodecNone {
			continue
		}
		// DXT in a non-normal mode cannot be placed by line offsets, the
		// blocks span rows.
		if (native == video.DXT1 || native == video.DXT1YUV || native == video.DXT5) &&
			d.videoMode != video.ModeNormal {
			continue
		}

		d.decType = typeLine
		switch desc.ColorSpec {
		case video.RGBA:
			return native, codecreg.CopyLineRGBA
		case video.RGB:
			return native, codecreg.CopyLineRGB
		default:
			return native, codecreg.CopyLine
		}
	}

	for _, slow := range []bool{false, true} {
		for _, native := range d.nativeCodecs {
			if native == video.CodecNone {
				continue
			}
			if decode := codecreg.GetTransform(desc.ColorSpec, native, slow); decode != nil {
				d.decType = typeLine
				return native, decode
			}
		}
	}

	for _, native := range d.nativeCodecs {
		if native == video.CodecNone {
			continue
		}
		states := decompress.InitMulti(desc.ColorSpec, native, d.maxSubstreams)
		if states == nil {
			continue
		}
		d.decompressState = states
		d.acceptsCorrupted = states[0].AcceptsCorruptedFrame()
		d.decType = typeExternal
		return native, nil
	}

	logger.Error("Decoder", "Unable to find decoder for input codec %s!", desc.ColorSpec)
	return video.CodecNone, nil
}

// blacklistCurrentOutCodec removes the failing output codec from the
// native list so the next reconfiguration picks another path.
func (d *Decoder) blacklistCurrentOutCodec() bool {
	if d.outCodec == video.CodecNone {
		return false
	}
	for i, c := range d.nativeCodecs {
		if c == d.outCodec {
			logger.Debug("Decoder", "Blacklisting codec %s", d.outCodec)
			d.nativeCodecs[i] = video.CodecNone
		}
	}
	d.outCodec = video.CodecNone
	return true
}
