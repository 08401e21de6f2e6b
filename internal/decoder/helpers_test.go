package decoder

import (
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/openuv/videorx/internal/control"
	"github.com/openuv/videorx/internal/crypt"
	"github.com/openuv/videorx/internal/display"
	"github.com/openuv/videorx/internal/fec"
	"github.com/openuv/videorx/pkg/video"
)

func testDesc(w, h int, codec video.Codec) video.Desc {
	return video.Desc{
		Width: w, Height: h, FPS: 25,
		Interlacing: video.Progressive,
		ColorSpec:   codec,
		TileCount:   1,
	}
}

type testPipeline struct {
	dec  *Decoder
	disp *display.MemDisplay
	ctrl *control.Reporter
	evs  <-chan string
	stop chan struct{}
}

// newTestPipeline builds a decoder over an in-memory display. When drain
// is set, presented frames are consumed so the display never backs up.
func newTestPipeline(t *testing.T, memCfg display.MemConfig, opts Options, drain bool) *testPipeline {
	t.Helper()

	ctrl := control.NewReporter()
	opts.Control = ctrl
	evs := ctrl.Subscribe()

	dec, err := New(opts)
	if err != nil {
		t.Fatalf("create decoder: %v", err)
	}
	dec.fatalf = func(format string, args ...interface{}) {
		t.Errorf("decoder fatal: "+format, args...)
	}

	disp := display.NewMem(memCfg)
	dec.RegisterDisplay(disp)

	p := &testPipeline{dec: dec, disp: disp, ctrl: ctrl, evs: evs, stop: make(chan struct{})}
	if drain {
		go func() {
			for {
				select {
				case <-p.stop:
					return
				case <-disp.Frames():
				}
			}
		}()
	}
	t.Cleanup(func() {
		close(p.stop)
		dec.Destroy()
		ctrl.Close()
	})
	return p
}

// fragmentFrame splits one substream's payload into plain video packets
// of at most pktSize payload bytes.
func fragmentFrame(desc video.Desc, substream, bufNum int, data []byte, pktSize int) []CodedPacket {
	var packets []CodedPacket
	for off := 0; off < len(data); off += pktSize {
		end := off + pktSize
		if end > len(data) {
			end = len(data)
		}
		hdr := BuildVideoHeader(desc, substream, bufNum, uint32(off), uint32(len(data)))
		packets = append(packets, CodedPacket{
			PT:   PTVideo,
			SSRC: 0x1234,
			Data: append(hdr, data[off:end]...),
		})
	}
	return packets
}

// patternFrame fills a frame-sized buffer with a deterministic pattern
// keyed by the buffer number.
func patternFrame(size, bufNum int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i*3 + bufNum*11)
	}
	return data
}

// buildFECFrame FEC-encodes one frame's payload (inner header plus
// data) and fragments the coded buffer, skipping the fragment indices in
// lose.
func buildFECFrame(t *testing.T, desc video.Desc, params video.FECParams, bufNum int, data []byte, lose map[int]bool) []CodedPacket {
	t.Helper()

	inner := BuildVideoHeader(desc, 0, bufNum, 0, uint32(VideoHdrLen+len(data)))
	payload := append(inner, data...)

	coded, err := fec.Encode(params, payload)
	if err != nil {
		t.Fatalf("FEC encode: %v", err)
	}
	shardLen := len(coded) / params.M

	var packets []CodedPacket
	for i := 0; i < params.M; i++ {
		if lose[i] {
			continue
		}
		pt := uint8(PTVideoRS)
		if params.Type == video.FECLDGM {
			pt = PTVideoLDGM
		}
		hdr := BuildFECHeader(params, 0, bufNum, uint32(i*shardLen), uint32(len(coded)))
		packets = append(packets, CodedPacket{
			PT:   pt,
			SSRC: 0x1234,
			Data: append(hdr, coded[i*shardLen:(i+1)*shardLen]...),
		})
	}
	return packets
}

// encryptPackets converts plain video packets to their encrypted form.
func encryptPackets(t *testing.T, packets []CodedPacket, passphrase string, mode crypt.Mode) []CodedPacket {
	t.Helper()

	enc, err := crypt.New(passphrase)
	if err != nil {
		t.Fatalf("create encryptor: %v", err)
	}

	out := make([]CodedPacket, len(packets))
	for i, pckt := range packets {
		hdr := pckt.Data[:VideoHdrLen]
		ct, err := enc.Encrypt(pckt.Data[VideoHdrLen:], hdr, mode)
		if err != nil {
			t.Fatalf("encrypt packet: %v", err)
		}
		data := make([]byte, 0, VideoHdrLen+CryptoHdrLen+len(ct))
		data = append(data, hdr...)
		data = binary.BigEndian.AppendUint32(data, uint32(mode)<<24)
		data = append(data, ct...)
		out[i] = CodedPacket{PT: PTEncryptVideo, SSRC: pckt.SSRC, Data: data}
	}
	return out
}

// waitStats polls the cumulative statistics until cond holds.
func waitStats(t *testing.T, dec *Decoder, what string, cond func(StatsSnapshot) bool) StatsSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := dec.Stats()
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s; stats: %+v", what, s)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// pump drains the decoder's reconfiguration queue, as the next arriving
// frame would.
func pump(dec *Decoder) {
	dec.DecodeFrame(nil, nil)
}

func countEvents(evs <-chan string, substr string) int {
	n := 0
	for {
		select {
		case line := <-evs:
			if substr == "" || strings.Contains(line, substr) {
				n++
			}
		default:
			return n
		}
	}
}
