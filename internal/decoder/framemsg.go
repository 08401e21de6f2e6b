package decoder

import (
	"fmt"

	"github.com/openuv/videorx/internal/control"
	"github.com/openuv/videorx/pkg/video"
)

// frameMsg is the unit traveling through the pipeline queues: the raw
// received frame, the post-FEC view aliasing into it (or into FEC
// output), and the accounting needed for the per-frame statistics
// record. A frameMsg with a nil recvFrame is the poison pill shutting
// the workers down.
type frameMsg struct {
	ctrl  *control.Reporter
	stats *cumulativeStats

	recvFrame  *video.Frame // received frame with FEC and/or compression
	nofecFrame *video.Frame // frame without FEC

	// pktList maps packet offset to packet length per substream. This is
	// the authoritative received-byte accounting.
	pktList   []map[int]int
	bufferNum []uint32

	receivedPktsCum uint64
	expectedPktsCum uint64

	nanoPerFrameDecompress      uint64
	nanoPerFrameErrorCorrection uint64
	nanoPerFrameExpected        uint64

	isDisplayed bool
	isCorrupted bool

	destroyed bool
}

func newFrameMsg(ctrl *control.Reporter, stats *cumulativeStats) *frameMsg {
	return &frameMsg{ctrl: ctrl, stats: stats}
}

func sumMap(m map[int]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// destroy finalizes the message after it left the pipeline: updates the
// cumulative counters, emits the control record and releases frame
// buffers. Every frameMsg is destroyed exactly once, on whatever stage
// drops it.
func (m *frameMsg) destroy() {
	if m == nil || m.destroyed {
		return
	}
	m.destroyed = true

	if m.recvFrame != nil {
		s := m.stats
		s.lock.Lock()

		receivedBytes := 0
		for i := range m.recvFrame.Tiles {
			receivedBytes += sumMap(m.pktList[i])
		}
		expectedBytes := m.recvFrame.DataLen()

		if m.recvFrame.FECParams.Type != video.FECNone {
			switch {
			case m.isCorrupted:
				s.fecNOK++
			case receivedBytes == expectedBytes:
				s.fecOK++
			default:
				s.fecCorrected++
			}
		}

		s.expectedBytesTotal += uint64(expectedBytes)
		s.receivedBytesTotal += uint64(receivedBytes)
		if m.isCorrupted {
			s.corrupted++
		}
		if m.isDisplayed {
			s.displayed++
		} else {
			s.dropped++
		}
		s.nanoPerFrameDecompress += m.nanoPerFrameDecompress
		s.nanoPerFrameErrorCorrection += m.nanoPerFrameErrorCorrection
		s.nanoPerFrameExpected += m.nanoPerFrameExpected
		s.reportedFrames++

		var bufferID uint32
		if len(m.bufferNum) > 0 {
			bufferID = m.bufferNum[0]
		}
		record := fmt.Sprintf("RECV bufferId=%d expectedPackets=%d receivedPackets=%d"+
			" expectedBytes=%d receivedBytes=%d isCorrupted=%d isDisplayed=%d"+
			" timestamp=%d nanoPerFrameDecompress=%d nanoPerFrameErrorCorrection=%d"+
			" nanoPerFrameExpected=%d reportedFrames=%d",
			bufferID, m.expectedPktsCum, m.receivedPktsCum,
			s.expectedBytesTotal, s.receivedBytesTotal,
			s.corrupted, s.displayed,
			timeSinceEpochMs(), s.nanoPerFrameDecompress, s.nanoPerFrameErrorCorrection,
			s.nanoPerFrameExpected, s.reportedFrames)

		if (s.displayed+s.dropped+s.missing)%600 == 599 {
			s.print()
		}
		s.lock.Unlock()

		m.ctrl.ReportStats(record)
	}

	m.recvFrame.Free()
	m.recvFrame = nil
	m.nofecFrame.Free()
	m.nofecFrame = nil
}

// reconfigureRequest asks the ingress context to reconfigure to desc.
// lastFrame, when set, is re-queued after the reconfiguration so the
// triggering frame is retried once.
type reconfigureRequest struct {
	desc      video.Desc
	lastFrame *frameMsg
	force     bool
}
