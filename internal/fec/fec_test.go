package fec

import (
	"bytes"
	"testing"

	"github.com/openuv/videorx/pkg/video"
)

func rsParams(k, m int) video.FECParams {
	return video.FECParams{Type: video.FECReedSolomon, K: k, M: m}
}

func payloadOf(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i * 7)
	}
	return p
}

// fullMap marks every fragment of the buffer as received.
func fullMap(bufLen, shardLen int) map[int]int {
	m := make(map[int]int)
	for off := 0; off < bufLen; off += shardLen {
		m[off] = shardLen
	}
	return m
}

func TestReedSolomonAllFragments(t *testing.T) {
	params := rsParams(4, 6)
	payload := payloadOf(4 * 100)
	buf, err := Encode(params, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	engine, err := CreateFromDesc(params)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	out, n := engine.Decode(buf, len(buf), fullMap(len(buf), len(buf)/6))
	if n == 0 {
		t.Fatal("decode failed with all fragments present")
	}
	if !bytes.Equal(out[:len(payload)], payload) {
		t.Fatal("recovered payload differs from original")
	}
}

func TestReedSolomonRecoversFromLoss(t *testing.T) {
	params := rsParams(4, 6)
	payload := payloadOf(4 * 96)
	buf, err := Encode(params, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	shardLen := len(buf) / 6

	// Lose fragments 1 and 4: k=4 of m=6 remain, recoverable.
	received := fullMap(len(buf), shardLen)
	delete(received, 1*shardLen)
	delete(received, 4*shardLen)

	engine, _ := CreateFromDesc(params)
	out, n := engine.Decode(buf, len(buf), received)
	if n == 0 {
		t.Fatal("decode failed with k fragments present")
	}
	if !bytes.Equal(out[:len(payload)], payload) {
		t.Fatal("recovered payload differs from original")
	}
}

func TestReedSolomonFailsBelowK(t *testing.T) {
	params := rsParams(4, 6)
	payload := payloadOf(4 * 96)
	buf, _ := Encode(params, payload)
	shardLen := len(buf) / 6

	received := fullMap(len(buf), shardLen)
	delete(received, 0)
	delete(received, shardLen)
	delete(received, 2*shardLen)

	engine, _ := CreateFromDesc(params)
	if _, n := engine.Decode(buf, len(buf), received); n != 0 {
		t.Fatal("decode succeeded with fewer than k fragments")
	}
}

func TestReedSolomonPartialFragmentNotCounted(t *testing.T) {
	params := rsParams(2, 3)
	payload := payloadOf(2 * 64)
	buf, _ := Encode(params, payload)
	shardLen := len(buf) / 3

	// Fragment 0 only half received; fragments 1 and 2 complete.
	received := map[int]int{
		0:            shardLen / 2,
		shardLen:     shardLen,
		2 * shardLen: shardLen,
	}

	engine, _ := CreateFromDesc(params)
	out, n := engine.Decode(buf, len(buf), received)
	if n == 0 {
		t.Fatal("decode should recover fragment 0 from parity")
	}
	if !bytes.Equal(out[:len(payload)], payload) {
		t.Fatal("recovered payload differs from original")
	}
}

func TestLDGMSingleLossPerGroup(t *testing.T) {
	params := video.FECParams{Type: video.FECLDGM, K: 4, M: 6, Seed: 3}
	payload := payloadOf(4 * 80)
	buf, err := Encode(params, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	shardLen := len(buf) / 6

	// Data fragments 0 and 1 land in different parity groups for any
	// seed since groups alternate.
	received := fullMap(len(buf), shardLen)
	delete(received, 0)
	delete(received, shardLen)

	engine, _ := CreateFromDesc(params)
	out, n := engine.Decode(buf, len(buf), received)
	if n == 0 {
		t.Fatal("LDGM failed to recover one loss per parity group")
	}
	if !bytes.Equal(out[:len(payload)], payload) {
		t.Fatal("recovered payload differs from original")
	}
}

func TestLDGMDoubleLossSameGroupFails(t *testing.T) {
	params := video.FECParams{Type: video.FECLDGM, K: 4, M: 6, Seed: 0}
	payload := payloadOf(4 * 80)
	buf, _ := Encode(params, payload)
	shardLen := len(buf) / 6

	// Fragments 0 and 2 share parity group 0 with seed 0 and p=2.
	received := fullMap(len(buf), shardLen)
	delete(received, 0)
	delete(received, 2*shardLen)

	engine, _ := CreateFromDesc(params)
	if _, n := engine.Decode(buf, len(buf), received); n != 0 {
		t.Fatal("LDGM recovered two losses in one parity group")
	}
}

func TestCreateFromDescRejectsBadParams(t *testing.T) {
	if _, err := CreateFromDesc(video.FECParams{Type: video.FECReedSolomon, K: 4, M: 4}); err == nil {
		t.Fatal("m == k accepted")
	}
	if _, err := CreateFromDesc(video.FECParams{Type: video.FECNone}); err == nil {
		t.Fatal("FEC none accepted")
	}
}

func TestShardPresence(t *testing.T) {
	// 4 fragments of 10 bytes; packets cover fragments 0, 1 and half of 2.
	received := map[int]int{0: 10, 10: 10, 20: 5}
	present := shardPresence(4, 10, received)
	want := []bool{true, true, false, false}
	for i := range want {
		if present[i] != want[i] {
			t.Fatalf("shardPresence[%d] = %v, want %v", i, present[i], want[i])
		}
	}

	// One packet spanning two whole fragments.
	present = shardPresence(4, 10, map[int]int{10: 20})
	if !present[1] || !present[2] || present[0] || present[3] {
		t.Fatalf("spanning packet coverage wrong: %v", present)
	}
}
