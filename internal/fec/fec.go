// Package fec reconstructs original payloads from block-coded fragments.
//
// A protected substream buffer is the concatenation of m equally sized
// fragments carrying k fragments worth of data. The received map (byte
// offset of each received packet to its length) tells which fragments
// actually arrived; any sufficient subset recovers the payload.
package fec

import (
	"github.com/pkg/errors"

	"github.com/openuv/videorx/pkg/video"
)

// Engine recovers the original payload of one substream buffer.
type Engine interface {
	// Decode reconstructs from the fragment buffer of srcLen bytes.
	// received maps packet offsets to packet lengths. A zero returned
	// length means reconstruction failed.
	Decode(src []byte, srcLen int, received map[int]int) ([]byte, int)
}

// CreateFromDesc builds an engine for the signalled FEC parameters.
func CreateFromDesc(p video.FECParams) (Engine, error) {
	switch p.Type {
	case video.FECReedSolomon:
		return newReedSolomon(p)
	case video.FECLDGM:
		return newLDGM(p)
	default:
		return nil, errors.Errorf("no FEC engine for type %s", p.Type)
	}
}

// shardPresence computes which of the m fragments of the buffer are fully
// covered by received packets.
func shardPresence(m, shardLen int, received map[int]int) []bool {
	covered := make([]int, m)
	for off, length := range received {
		end := off + length
		for i := 0; i < m; i++ {
			lo, hi := i*shardLen, (i+1)*shardLen
			if off < hi && end > lo {
				a, b := off, end
				if a < lo {
					a = lo
				}
				if b > hi {
					b = hi
				}
				covered[i] += b - a
			}
		}
	}
	present := make([]bool, m)
	for i := range present {
		present[i] = covered[i] == shardLen
	}
	return present
}

// Encode builds the fragment buffer a sender would transmit for the
// given parameters. It backs loopback tools and the test harness.
func Encode(p video.FECParams, payload []byte) ([]byte, error) {
	engine, err := CreateFromDesc(p)
	if err != nil {
		return nil, err
	}
	enc, ok := engine.(interface{ Encode([]byte) ([]byte, error) })
	if !ok {
		return nil, errors.Errorf("FEC type %s has no encoder", p.Type)
	}
	return enc.Encode(payload)
}
