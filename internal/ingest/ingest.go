// Package ingest adapts RTP packets to the decoder's entry point. It
// groups packets of one frame by RTP timestamp, tracks sequence-number
// gaps for the expected-packet accounting and drives DecodeFrame once a
// frame's packets are complete.
package ingest

import (
	"net"

	"github.com/pion/rtp"
	"github.com/pkg/errors"

	"github.com/openuv/videorx/internal/decoder"
	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/internal/metrics"
)

// Assembler reassembles one participant's video frames from RTP packets.
type Assembler struct {
	dec *decoder.Decoder
	m   *metrics.Metrics

	cur     []decoder.CodedPacket
	curTS   uint32
	haveCur bool

	lastSeq uint16
	haveSeq bool

	pbuf decoder.PbufStats
}

// NewAssembler creates an assembler feeding the given decoder. m may be
// nil.
func NewAssembler(dec *decoder.Decoder, m *metrics.Metrics) *Assembler {
	return &Assembler{dec: dec, m: m}
}

// Feed consumes one RTP packet. Packets of a new timestamp flush the
// frame under assembly; the marker bit flushes immediately.
func (a *Assembler) Feed(pkt *rtp.Packet) {
	if a.m != nil {
		a.m.PacketsReceived.Add(1)
	}

	a.pbuf.ReceivedPktsCum++
	if a.haveSeq {
		gap := pkt.SequenceNumber - a.lastSeq // wraps correctly in uint16
		a.pbuf.ExpectedPktsCum += uint64(gap)
	} else {
		a.pbuf.ExpectedPktsCum++
	}
	a.lastSeq = pkt.SequenceNumber
	a.haveSeq = true

	if a.haveCur && pkt.Timestamp != a.curTS {
		a.Flush()
	}

	a.cur = append(a.cur, decoder.CodedPacket{
		PT:   pkt.PayloadType,
		SSRC: pkt.SSRC,
		Data: pkt.Payload,
	})
	a.curTS = pkt.Timestamp
	a.haveCur = true

	if pkt.Marker {
		a.Flush()
	}
}

// Flush hands the frame under assembly to the decoder.
func (a *Assembler) Flush() {
	if !a.haveCur {
		return
	}
	packets := a.cur
	a.cur = nil
	a.haveCur = false

	if a.dec.DecodeFrame(packets, &a.pbuf) {
		if a.m != nil {
			a.m.FramesAssembled.Add(1)
		}
	} else if a.m != nil {
		a.m.PacketsDropped.Add(uint64(len(packets)))
	}
}

// MaxFrameSize reports the largest frame seen, for socket buffer sizing.
func (a *Assembler) MaxFrameSize() int {
	return a.pbuf.MaxFrameSize
}

// Receiver reads RTP from a UDP socket into an Assembler.
type Receiver struct {
	conn *net.UDPConn
	asm  *Assembler
}

// NewReceiver binds the UDP listen address.
func NewReceiver(addr string, asm *Assembler) (*Receiver, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "resolve listen address")
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, errors.Wrap(err, "bind RTP socket")
	}
	if err := conn.SetReadBuffer(4 << 20); err != nil {
		logger.Warn("Ingest", "Cannot enlarge receive buffer: %v", err)
	}
	return &Receiver{conn: conn, asm: asm}, nil
}

// Run reads packets until the socket is closed.
func (r *Receiver) Run() error {
	buf := make([]byte, 65536)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			r.asm.Flush()
			return err
		}

		var pkt rtp.Packet
		if err := pkt.Unmarshal(append([]byte(nil), buf[:n]...)); err != nil {
			logger.Debug("Ingest", "Malformed RTP packet: %v", err)
			continue
		}
		r.asm.Feed(&pkt)
	}
}

// Close shuts the socket down, unblocking Run.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
