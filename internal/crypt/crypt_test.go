package crypt

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestRoundTrip(t *testing.T) {
	d, err := New("test passphrase")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	payload := []byte("per-packet video payload bytes")
	aad := []byte("media header")

	for _, mode := range []Mode{ModeAES128CTR, ModeAES128GCM} {
		ct, err := d.Encrypt(payload, aad, mode)
		if err != nil {
			t.Fatalf("mode %d encrypt: %v", mode, err)
		}
		pt, err := d.Decrypt(ct, aad, mode)
		if err != nil {
			t.Fatalf("mode %d decrypt: %v", mode, err)
		}
		if !bytes.Equal(pt, payload) {
			t.Fatalf("mode %d round trip mismatch", mode)
		}
	}
}

func TestTamperedPayloadFails(t *testing.T) {
	d, _ := New("key")
	payload := []byte("data to protect")
	aad := []byte("header")

	for _, mode := range []Mode{ModeAES128CTR, ModeAES128GCM} {
		ct, _ := d.Encrypt(payload, aad, mode)
		ct[len(ct)-1] ^= 0x01
		if _, err := d.Decrypt(ct, aad, mode); !errors.Is(err, ErrAuth) {
			t.Fatalf("mode %d: tampered ciphertext accepted (err=%v)", mode, err)
		}
	}
}

func TestTamperedHeaderFails(t *testing.T) {
	d, _ := New("key")
	payload := []byte("data to protect")

	for _, mode := range []Mode{ModeAES128CTR, ModeAES128GCM} {
		ct, _ := d.Encrypt(payload, []byte("header"), mode)
		if _, err := d.Decrypt(ct, []byte("hEader"), mode); !errors.Is(err, ErrAuth) {
			t.Fatalf("mode %d: tampered header accepted (err=%v)", mode, err)
		}
	}
}

func TestWrongKeyFails(t *testing.T) {
	a, _ := New("alpha")
	b, _ := New("bravo")
	aad := []byte("hdr")

	ct, _ := a.Encrypt([]byte("secret"), aad, ModeAES128GCM)
	if _, err := b.Decrypt(ct, aad, ModeAES128GCM); !errors.Is(err, ErrAuth) {
		t.Fatalf("wrong key accepted (err=%v)", err)
	}
}

func TestUnknownMode(t *testing.T) {
	d, _ := New("key")
	if _, err := d.Decrypt([]byte{1, 2, 3}, nil, ModeNone); err == nil {
		t.Fatal("mode none accepted")
	}
	if _, err := d.Decrypt([]byte{1, 2, 3}, nil, ModeMax+1); err == nil {
		t.Fatal("out-of-range mode accepted")
	}
}

func TestEmptyPassphrase(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("empty passphrase accepted")
	}
}
