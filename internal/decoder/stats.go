package decoder

import (
	"fmt"
	"sync"
	"time"

	"github.com/openuv/videorx/internal/logger"
)

// cumulativeStats aggregates per-frame outcomes over the decoder's
// lifetime. Mutated under its own lock from the ingress thread and from
// frame-message teardown on the FEC and decompress threads.
type cumulativeStats struct {
	lock sync.Mutex

	receivedBytesTotal uint64
	expectedBytesTotal uint64

	displayed uint64
	dropped   uint64
	corrupted uint64
	missing   uint64

	fecOK        uint64
	fecCorrected uint64
	fecNOK       uint64

	nanoPerFrameDecompress      uint64
	nanoPerFrameErrorCorrection uint64
	nanoPerFrameExpected        uint64
	reportedFrames              uint64
}

// print logs the cumulative summary. Callers hold the lock.
func (s *cumulativeStats) print() {
	msg := fmt.Sprintf("Video dec stats (cumulative): %d total / %d disp / %d drop / %d corr / %d missing.",
		s.displayed+s.dropped+s.missing, s.displayed, s.dropped, s.corrupted, s.missing)
	if s.fecOK+s.fecNOK+s.fecCorrected > 0 {
		msg += fmt.Sprintf(" FEC noerr/OK/NOK: %d/%d/%d", s.fecOK, s.fecCorrected, s.fecNOK)
	}
	logger.Info("Decoder", "%s", msg)
}

// StatsSnapshot is a copy of the cumulative counters for metrics export
// and tests.
type StatsSnapshot struct {
	ReceivedBytes uint64
	ExpectedBytes uint64
	Displayed     uint64
	Dropped       uint64
	Corrupted     uint64
	Missing       uint64
	FECOK         uint64
	FECCorrected  uint64
	FECNOK        uint64

	NanoPerFrameDecompress      uint64
	NanoPerFrameErrorCorrection uint64
	NanoPerFrameExpected        uint64
	ReportedFrames              uint64
}

func (s *cumulativeStats) snapshot() StatsSnapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	return StatsSnapshot{
		ReceivedBytes: s.receivedBytesTotal,
		ExpectedBytes: s.expectedBytesTotal,
		Displayed:     s.displayed,
		Dropped:       s.dropped,
		Corrupted:     s.corrupted,
		Missing:       s.missing,
		FECOK:         s.fecOK,
		FECCorrected:  s.fecCorrected,
		FECNOK:        s.fecNOK,

		NanoPerFrameDecompress:      s.nanoPerFrameDecompress,
		NanoPerFrameErrorCorrection: s.nanoPerFrameErrorCorrection,
		NanoPerFrameExpected:        s.nanoPerFrameExpected,
		ReportedFrames:              s.reportedFrames,
	}
}

func timeSinceEpochMs() int64 {
	return time.Now().UnixMilli()
}
