package video

import (
	"math"
	"testing"
)

func TestLinesizeMonotone(t *testing.T) {
	for _, codec := range []Codec{RGBA, UYVY, V210, RGB, R10k} {
		prev := 0
		for w := 1; w <= 4096; w += 7 {
			ls := Linesize(w, codec)
			if ls < prev {
				t.Fatalf("Linesize(%d, %s) = %d < Linesize of smaller width %d", w, codec, ls, prev)
			}
			if want := int(float64(w)*codec.Bpp() + 0.999999); codec != V210 && ls != want {
				t.Fatalf("Linesize(%d, %s) = %d, want %d", w, codec, ls, want)
			}
			prev = ls
		}
	}
}

func TestLinesizeV210Alignment(t *testing.T) {
	if got := Linesize(48, V210); got != 128 {
		t.Fatalf("Linesize(48, v210) = %d, want 128", got)
	}
	if got := Linesize(49, V210); got != 256 {
		t.Fatalf("Linesize(49, v210) = %d, want 256", got)
	}
	if got := Linesize(1920, V210); got != 1920/48*128 {
		t.Fatalf("Linesize(1920, v210) = %d, want %d", got, 1920/48*128)
	}
}

func TestCodecFourCCRoundTrip(t *testing.T) {
	for _, codec := range []Codec{RGBA, UYVY, V210, RGB, BGR, R10k, DXT1, DXT1YUV, DXT5, JPEG, H264, VP8} {
		if got := CodecFromFourCC(codec.FourCC()); got != codec {
			t.Fatalf("CodecFromFourCC(%s.FourCC()) = %s", codec, got)
		}
	}
	if got := CodecFromFourCC(0xdeadbeef); got != CodecNone {
		t.Fatalf("unknown FourCC resolved to %s", got)
	}
}

func TestGuessMode(t *testing.T) {
	cases := []struct {
		substreams int
		want       Mode
	}{
		{1, ModeNormal},
		{2, ModeStereo},
		{3, Mode3x1},
		{4, ModeTiled4K},
		{5, ModeUnknown},
	}
	for _, c := range cases {
		if got := GuessMode(c.substreams); got != c.want {
			t.Errorf("GuessMode(%d) = %s, want %s", c.substreams, got, c.want)
		}
	}
}

func TestModeTiles(t *testing.T) {
	if ModeTiled4K.Tiles() != 4 || ModeTiled4K.TilesX() != 2 || ModeTiled4K.TilesY() != 2 {
		t.Fatalf("tiled-4k geometry wrong: %dx%d", ModeTiled4K.TilesX(), ModeTiled4K.TilesY())
	}
	if ModeNormal.Tiles() != 1 {
		t.Fatalf("normal mode has %d tiles", ModeNormal.Tiles())
	}
}

func TestDescEquality(t *testing.T) {
	a := Desc{Width: 1920, Height: 1080, FPS: 25, Interlacing: Progressive, ColorSpec: UYVY, TileCount: 1}
	b := a
	b.TileCount = 4
	if a.Eq(b) {
		t.Fatal("descriptors with different tile counts compared equal")
	}
	if !a.EqExclTileCount(b) {
		t.Fatal("EqExclTileCount should ignore the tile count")
	}
	b.Width = 1280
	if a.EqExclTileCount(b) {
		t.Fatal("EqExclTileCount must still compare the width")
	}
}

func TestComputeFPS(t *testing.T) {
	if got := ComputeFPS(25, 1, 0, 0); got != 25 {
		t.Fatalf("ComputeFPS(25,1,0,0) = %v", got)
	}
	ntsc := ComputeFPS(30, 1, 0, 1)
	if math.Abs(ntsc-29.97) > 0.01 {
		t.Fatalf("ComputeFPS NTSC = %v, want ~29.97", ntsc)
	}
}

func TestEncodeFPSRoundTrip(t *testing.T) {
	for _, fps := range []float64{24, 25, 30, 50, 60} {
		pt, d, fd, fi := EncodeFPS(fps)
		if got := ComputeFPS(pt, d, fd, fi); got != fps {
			t.Errorf("fps %v round-trips to %v", fps, got)
		}
	}
}

func TestFrameDataLen(t *testing.T) {
	f := NewFrame(2)
	f.Tiles[0].DataLen = 100
	f.Tiles[1].DataLen = 50
	if f.DataLen() != 150 {
		t.Fatalf("DataLen = %d, want 150", f.DataLen())
	}
}
