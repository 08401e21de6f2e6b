package fec

import (
	"github.com/pkg/errors"

	"github.com/openuv/videorx/internal/logger"
	"github.com/openuv/videorx/pkg/video"
)

// ldgmEngine is a sparse-parity scheme compatible with the LDGM wire
// descriptor. Each of the m-k parity fragments is the XOR of the data
// fragments assigned to it by a seed-keyed interleaving, so a single lost
// data fragment per parity group is recoverable.
type ldgmEngine struct {
	k, m, seed int
}

func newLDGM(p video.FECParams) (*ldgmEngine, error) {
	if p.K <= 0 || p.M <= p.K {
		return nil, errors.Errorf("invalid LDGM parameters k=%d m=%d", p.K, p.M)
	}
	return &ldgmEngine{k: p.K, m: p.M, seed: p.Seed}, nil
}

func (l *ldgmEngine) group(dataIdx int) int {
	p := l.m - l.k
	return (dataIdx + l.seed) % p
}

func (l *ldgmEngine) Decode(src []byte, srcLen int, received map[int]int) ([]byte, int) {
	if srcLen <= 0 || srcLen%l.m != 0 {
		logger.Debug("FEC", "LDGM buffer length %d not divisible into %d fragments", srcLen, l.m)
		return nil, 0
	}
	shardLen := srcLen / l.m
	present := shardPresence(l.m, shardLen, received)

	shard := func(i int) []byte { return src[i*shardLen : (i+1)*shardLen] }

	out := make([]byte, l.k*shardLen)
	for i := 0; i < l.k; i++ {
		if present[i] {
			copy(out[i*shardLen:], shard(i))
			continue
		}
		// Recover from the parity group: XOR of the parity fragment and
		// every other present data fragment of the group.
		g := l.group(i)
		if !present[l.k+g] {
			logger.Debug("FEC", "LDGM cannot recover fragment %d: parity %d missing", i, g)
			return nil, 0
		}
		rec := out[i*shardLen : (i+1)*shardLen]
		copy(rec, shard(l.k+g))
		for j := 0; j < l.k; j++ {
			if j == i || l.group(j) != g {
				continue
			}
			if !present[j] {
				logger.Debug("FEC", "LDGM cannot recover: fragments %d and %d share parity %d", i, j, g)
				return nil, 0
			}
			s := shard(j)
			for b := range rec {
				rec[b] ^= s[b]
			}
		}
	}
	return out, len(out)
}

// Encode builds the m-fragment wire buffer for a payload.
func (l *ldgmEngine) Encode(payload []byte) ([]byte, error) {
	shardLen := (len(payload) + l.k - 1) / l.k
	out := make([]byte, l.m*shardLen)
	for i := 0; i < l.k; i++ {
		lo := i * shardLen
		if lo < len(payload) {
			copy(out[lo:lo+shardLen], payload[lo:])
		}
	}
	for i := 0; i < l.k; i++ {
		g := l.group(i)
		parity := out[(l.k+g)*shardLen : (l.k+g+1)*shardLen]
		data := out[i*shardLen : (i+1)*shardLen]
		for b := range parity {
			parity[b] ^= data[b]
		}
	}
	return out, nil
}
