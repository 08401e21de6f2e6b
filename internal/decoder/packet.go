package decoder

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/openuv/videorx/pkg/video"
)

// Payload types of the video RTP profile. Encryption is the low bit;
// payload types from PTVideoLDGM up are FEC protected.
const (
	PTVideo            = 20
	PTEncryptVideo     = 21
	PTVideoLDGM        = 22
	PTEncryptVideoLDGM = 23
	PTVideoRS          = 24
	PTEncryptVideoRS   = 25
)

// Header sizes in bytes. The plain and FEC headers are both six 32-bit
// words; the FEC variant reuses words 3 and 4 for the FEC descriptor and
// seed, with the video format carried by the recovered inner header.
const (
	VideoHdrLen  = 24
	FECHdrLen    = 24
	CryptoHdrLen = 4
)

// PTIsEncrypted reports whether the payload type carries encrypted data.
func PTIsEncrypted(pt uint8) bool {
	switch pt {
	case PTEncryptVideo, PTEncryptVideoLDGM, PTEncryptVideoRS:
		return true
	}
	return false
}

// PTHasFEC reports whether the payload type is FEC protected.
func PTHasFEC(pt uint8) bool {
	return pt >= PTVideoLDGM && pt <= PTEncryptVideoRS
}

// FECTypeFromPT maps a payload type to its FEC family.
func FECTypeFromPT(pt uint8) video.FECType {
	switch pt {
	case PTVideoLDGM, PTEncryptVideoLDGM:
		return video.FECLDGM
	case PTVideoRS, PTEncryptVideoRS:
		return video.FECReedSolomon
	default:
		return video.FECNone
	}
}

// CodedPacket is one reassembled payload packet as delivered by the RTP
// depacketizer: the payload type, the stream source and the full payload
// starting with the media header.
type CodedPacket struct {
	PT   uint8
	SSRC uint32
	Data []byte
}

// PbufStats is the per-participant accounting the packet reassembler
// shares with the decoder. The decoder feeds back the largest frame seen
// so the reassembler can size its buffers.
type PbufStats struct {
	ReceivedPktsCum uint64
	ExpectedPktsCum uint64
	MaxFrameSize    int
	Decoded         uint64
}

func be32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// ParseVideoHeader decodes a six-word video payload header into a
// descriptor. The tile count is inferred from the substream index, which
// is only a lower bound until the whole first frame was seen.
func ParseVideoHeader(hdr []byte) (video.Desc, error) {
	if len(hdr) < VideoHdrLen {
		return video.Desc{}, errors.Errorf("video header too short: %d bytes", len(hdr))
	}

	var desc video.Desc
	desc.TileCount = int(be32(hdr)>>22) + 1

	wh := be32(hdr[12:])
	desc.Width = int(wh >> 16)
	desc.Height = int(wh & 0xffff)

	fcc := be32(hdr[16:])
	desc.ColorSpec = video.CodecFromFourCC(fcc)
	if desc.ColorSpec == video.CodecNone {
		return video.Desc{}, errors.Errorf("unknown FourCC %q",
			string([]byte{byte(fcc), byte(fcc >> 8), byte(fcc >> 16), byte(fcc >> 24)}))
	}

	fmtw := be32(hdr[20:])
	desc.Interlacing = video.Interlacing(fmtw >> 29)
	fpsPt := int(fmtw>>19) & 0x3ff
	fpsd := int(fmtw>>15) & 0xf
	fd := int(fmtw>>14) & 0x1
	fi := int(fmtw>>13) & 0x1
	desc.FPS = video.ComputeFPS(fpsPt, fpsd, fd, fi)

	return desc, nil
}

// BuildVideoHeader encodes the six-word header for one packet of a
// substream. Exposed for the sender-side test harness and loopback
// tools.
func BuildVideoHeader(desc video.Desc, substream, bufferNum int, offset, length uint32) []byte {
	hdr := make([]byte, VideoHdrLen)
	binary.BigEndian.PutUint32(hdr, uint32(substream)<<22|uint32(bufferNum)&0x3fffff)
	binary.BigEndian.PutUint32(hdr[4:], offset)
	binary.BigEndian.PutUint32(hdr[8:], length)
	binary.BigEndian.PutUint32(hdr[12:], uint32(desc.Width)<<16|uint32(desc.Height)&0xffff)
	binary.BigEndian.PutUint32(hdr[16:], desc.ColorSpec.FourCC())

	fpsPt, fpsd, fd, fi := video.EncodeFPS(desc.FPS)
	fmtw := uint32(desc.Interlacing)<<29 |
		uint32(fpsPt&0x3ff)<<19 |
		uint32(fpsd&0xf)<<15 |
		uint32(fd&0x1)<<14 |
		uint32(fi&0x1)<<13
	binary.BigEndian.PutUint32(hdr[20:], fmtw)
	return hdr
}

// BuildFECHeader encodes the six-word FEC packet header: words 3 and 4
// carry the FEC descriptor and seed instead of the video format.
func BuildFECHeader(params video.FECParams, substream, bufferNum int, offset, length uint32) []byte {
	hdr := make([]byte, FECHdrLen)
	binary.BigEndian.PutUint32(hdr, uint32(substream)<<22|uint32(bufferNum)&0x3fffff)
	binary.BigEndian.PutUint32(hdr[4:], offset)
	binary.BigEndian.PutUint32(hdr[8:], length)
	binary.BigEndian.PutUint32(hdr[12:],
		uint32(params.K)<<19|uint32(params.M&0x1fff)<<6|uint32(params.C&0x3f))
	binary.BigEndian.PutUint32(hdr[16:], uint32(params.Seed))
	return hdr
}

// parseFECParams extracts the FEC descriptor from a FEC packet header.
func parseFECParams(hdr []byte, pt uint8) video.FECParams {
	w := be32(hdr[12:])
	return video.FECParams{
		Type: FECTypeFromPT(pt),
		K:    int(w >> 19),
		M:    int(w>>6) & 0x1fff,
		C:    int(w) & 0x3f,
		Seed: int(be32(hdr[16:])),
	}
}
