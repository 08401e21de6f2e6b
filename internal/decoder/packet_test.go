package decoder

import (
	"testing"

	"github.com/openuv/videorx/pkg/video"
)

func TestVideoHeaderRoundTrip(t *testing.T) {
	desc := video.Desc{
		Width: 1920, Height: 1080, FPS: 60,
		Interlacing: video.InterlacedMerged,
		ColorSpec:   video.V210,
	}
	hdr := BuildVideoHeader(desc, 2, 12345, 7000, 99999)

	parsed, err := ParseVideoHeader(hdr)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Width != 1920 || parsed.Height != 1080 {
		t.Fatalf("geometry = %dx%d", parsed.Width, parsed.Height)
	}
	if parsed.ColorSpec != video.V210 {
		t.Fatalf("codec = %s", parsed.ColorSpec)
	}
	if parsed.Interlacing != video.InterlacedMerged {
		t.Fatalf("interlacing = %v", parsed.Interlacing)
	}
	if parsed.FPS != 60 {
		t.Fatalf("fps = %v", parsed.FPS)
	}
	if parsed.TileCount != 3 { // substream index 2 implies at least 3
		t.Fatalf("tile count = %d", parsed.TileCount)
	}

	w0 := be32(hdr)
	if w0>>22 != 2 || w0&0x3fffff != 12345 {
		t.Fatalf("word 0 = %#x", w0)
	}
	if be32(hdr[4:]) != 7000 || be32(hdr[8:]) != 99999 {
		t.Fatal("offset or length wrong")
	}
}

func TestBufferNumberWraps22Bits(t *testing.T) {
	hdr := BuildVideoHeader(testDesc(16, 16, video.RGBA), 0, 0x400001, 0, 16)
	if got := be32(hdr) & 0x3fffff; got != 1 {
		t.Fatalf("buffer number = %d, want 1 (22-bit wrap)", got)
	}
}

func TestFECHeaderRoundTrip(t *testing.T) {
	params := video.FECParams{Type: video.FECReedSolomon, K: 200, M: 240, C: 17, Seed: 0x5eed}
	hdr := BuildFECHeader(params, 1, 77, 512, 4096)

	got := parseFECParams(hdr, PTVideoRS)
	if got != params {
		t.Fatalf("parseFECParams = %+v, want %+v", got, params)
	}
}

func TestParseVideoHeaderRejectsUnknownFourCC(t *testing.T) {
	hdr := BuildVideoHeader(testDesc(16, 16, video.RGBA), 0, 0, 0, 16)
	hdr[16], hdr[17], hdr[18], hdr[19] = 'Z', 'Z', 'Z', 'Z'
	if _, err := ParseVideoHeader(hdr); err == nil {
		t.Fatal("unknown FourCC accepted")
	}
}

func TestPayloadTypeProperties(t *testing.T) {
	cases := []struct {
		pt        uint8
		encrypted bool
		fec       video.FECType
	}{
		{PTVideo, false, video.FECNone},
		{PTEncryptVideo, true, video.FECNone},
		{PTVideoLDGM, false, video.FECLDGM},
		{PTEncryptVideoLDGM, true, video.FECLDGM},
		{PTVideoRS, false, video.FECReedSolomon},
		{PTEncryptVideoRS, true, video.FECReedSolomon},
	}
	for _, c := range cases {
		if PTIsEncrypted(c.pt) != c.encrypted {
			t.Errorf("PTIsEncrypted(%d) = %v", c.pt, !c.encrypted)
		}
		if (FECTypeFromPT(c.pt) != video.FECNone) != PTHasFEC(c.pt) {
			t.Errorf("FEC flags inconsistent for pt %d", c.pt)
		}
		if FECTypeFromPT(c.pt) != c.fec {
			t.Errorf("FECTypeFromPT(%d) = %v, want %v", c.pt, FECTypeFromPT(c.pt), c.fec)
		}
	}
}
