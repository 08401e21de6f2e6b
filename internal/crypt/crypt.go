// Package crypt implements the authenticated packet payload encryption
// of the video transport. The AES-128 key is derived from a shared
// passphrase; the media payload header is authenticated as associated
// data so a tampered header fails the check like a tampered payload.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
)

// Mode is the cipher mode carried in the high byte of the crypto header.
type Mode int

const (
	ModeNone Mode = iota
	ModeAES128CTR
	ModeAES128GCM

	ModeMax = ModeAES128GCM
)

const (
	ctrNonceLen = 8
	gcmNonceLen = 12
)

// ErrAuth is returned when the integrity check of a packet fails. The
// caller drops the packet without failing the frame.
var ErrAuth = errors.New("packet integrity check failed")

// Decryptor holds the derived key material for one stream.
type Decryptor struct {
	block cipher.Block
	aead  cipher.AEAD
}

// New derives the AES-128 key from the passphrase.
func New(passphrase string) (*Decryptor, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}
	key := md5.Sum([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, "create cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "create GCM")
	}
	return &Decryptor{block: block, aead: aead}, nil
}

// Decrypt authenticates and decrypts one packet payload. aad is the
// plaintext media header preceding the ciphertext on the wire. Returns
// ErrAuth when the payload or header was tampered with or the key is
// wrong.
func (d *Decryptor) Decrypt(ciphertext, aad []byte, mode Mode) ([]byte, error) {
	switch mode {
	case ModeAES128CTR:
		return d.decryptCTR(ciphertext, aad)
	case ModeAES128GCM:
		return d.decryptGCM(ciphertext, aad)
	default:
		return nil, errors.Errorf("unknown cipher mode: %d", mode)
	}
}

func (d *Decryptor) decryptGCM(ciphertext, aad []byte) ([]byte, error) {
	if len(ciphertext) < gcmNonceLen {
		return nil, ErrAuth
	}
	nonce, sealed := ciphertext[:gcmNonceLen], ciphertext[gcmNonceLen:]
	plain, err := d.aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrAuth
	}
	return plain, nil
}

// decryptCTR decrypts nonce-prefixed CTR data whose plaintext carries a
// trailing CRC-32 over payload and associated header.
func (d *Decryptor) decryptCTR(ciphertext, aad []byte) ([]byte, error) {
	if len(ciphertext) < ctrNonceLen+4 {
		return nil, ErrAuth
	}
	iv := make([]byte, aes.BlockSize)
	copy(iv, ciphertext[:ctrNonceLen])
	stream := cipher.NewCTR(d.block, iv)

	plain := make([]byte, len(ciphertext)-ctrNonceLen)
	stream.XORKeyStream(plain, ciphertext[ctrNonceLen:])

	payload, sum := plain[:len(plain)-4], plain[len(plain)-4:]
	crc := crc32.ChecksumIEEE(payload)
	crc = crc32.Update(crc, crc32.IEEETable, aad)
	if binary.BigEndian.Uint32(sum) != crc {
		return nil, ErrAuth
	}
	return payload, nil
}

// Encrypt is the sender-side counterpart, used to build test vectors and
// loopback streams.
func (d *Decryptor) Encrypt(payload, aad []byte, mode Mode) ([]byte, error) {
	switch mode {
	case ModeAES128CTR:
		iv := make([]byte, aes.BlockSize)
		if _, err := rand.Read(iv[:ctrNonceLen]); err != nil {
			return nil, err
		}
		crc := crc32.ChecksumIEEE(payload)
		crc = crc32.Update(crc, crc32.IEEETable, aad)
		plain := make([]byte, 0, len(payload)+4)
		plain = append(plain, payload...)
		plain = binary.BigEndian.AppendUint32(plain, crc)

		out := make([]byte, ctrNonceLen+len(plain))
		copy(out, iv[:ctrNonceLen])
		cipher.NewCTR(d.block, iv).XORKeyStream(out[ctrNonceLen:], plain)
		return out, nil
	case ModeAES128GCM:
		nonce := make([]byte, gcmNonceLen)
		if _, err := rand.Read(nonce); err != nil {
			return nil, err
		}
		return d.aead.Seal(nonce, nonce, payload, aad), nil
	default:
		return nil, errors.Errorf("unknown cipher mode: %d", mode)
	}
}
