package fec

import (
	"github.com/klauspost/reedsolomon"
	"github.com/pkg/errors"

	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/pkg/video"
)

type reedSolomonEngine struct {
	k, m int
	enc  reedsolomon.Encoder
}

func newReedSolomon(p video.FECParams) (*reedSolomonEngine, error) {
	if p.K <= 0 || p.M <= p.K {
		return nil, errors.Errorf("invalid RS parameters k=%d m=%d", p.K, p.M)
	}
	enc, err := reedsolomon.New(p.K, p.M-p.K)
	if err != nil {
		return nil, errors.Wrap(err, "create RS coder")
	}
	return &reedSolomonEngine{k: p.K, m: p.M, enc: enc}, nil
}

func (r *reedSolomonEngine) Decode(src []byte, srcLen int, received map[int]int) ([]byte, int) {
	if srcLen <= 0 || srcLen%r.m != 0 {
		logger.Debug("FEC", "RS buffer length %d not divisible into %d fragments", srcLen, r.m)
		return nil, 0
	}
	shardLen := srcLen / r.m
	present := shardPresence(r.m, shardLen, received)

	shards := make([][]byte, r.m)
	have := 0
	for i := 0; i < r.m; i++ {
		if present[i] {
			shards[i] = src[i*shardLen : (i+1)*shardLen]
			have++
		}
	}
	if have < r.k {
		logger.Debug("FEC", "RS cannot recover: %d of %d fragments present, need %d", have, r.m, r.k)
		return nil, 0
	}

	if have < r.m {
		if err := r.enc.ReconstructData(shards); err != nil {
			logger.Debug("FEC", "RS reconstruct: %v", err)
			return nil, 0
		}
	}

	out := make([]byte, 0, r.k*shardLen)
	for i := 0; i < r.k; i++ {
		out = append(out, shards[i]...)
	}
	return out, len(out)
}

// Encode produces the m-fragment wire buffer for a payload; the payload
// is zero-padded to k equal fragments. Used by the sender side of tests.
func (r *reedSolomonEngine) Encode(payload []byte) ([]byte, error) {
	shardLen := (len(payload) + r.k - 1) / r.k
	shards := make([][]byte, r.m)
	for i := 0; i < r.m; i++ {
		shards[i] = make([]byte, shardLen)
		if i < r.k {
			lo := i * shardLen
			if lo < len(payload) {
				copy(shards[i], payload[lo:])
			}
		}
	}
	if err := r.enc.Encode(shards); err != nil {
		return nil, errors.Wrap(err, "RS encode")
	}
	out := make([]byte, 0, r.m*shardLen)
	for _, s := range shards {
		out = append(out, s...)
	}
	return out, nil
}
