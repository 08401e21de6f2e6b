package codecreg

import (
	"bytes"
	"testing"

	"github.com/openuv/videorx/pkg/video"
)

func TestCopyLine(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, 8)
	CopyLine(dst, src, 8, 0, 8, 16)
	if !bytes.Equal(dst, src) {
		t.Fatalf("CopyLine mangled data: %v", dst)
	}
}

func TestCopyLineRGBADefaultShifts(t *testing.T) {
	src := []byte{10, 20, 30, 0, 40, 50, 60, 0}
	dst := make([]byte, 8)
	CopyLineRGBA(dst, src, 8, 0, 8, 16)
	want := []byte{10, 20, 30, 0, 40, 50, 60, 0}
	if !bytes.Equal(dst, want) {
		t.Fatalf("CopyLineRGBA = %v, want %v", dst, want)
	}
}

func TestCopyLineRGBASwappedShifts(t *testing.T) {
	src := []byte{10, 20, 30, 0}
	dst := make([]byte, 4)
	CopyLineRGBA(dst, src, 4, 16, 8, 0) // display wants BGR order
	want := []byte{30, 20, 10, 0}
	if !bytes.Equal(dst, want) {
		t.Fatalf("CopyLineRGBA swapped = %v, want %v", dst, want)
	}
}

func TestRGBToRGBAExpands(t *testing.T) {
	src := []byte{1, 2, 3, 4, 5, 6}
	dst := make([]byte, 8)
	fn := GetTransform(video.RGB, video.RGBA, false)
	if fn == nil {
		t.Fatal("no RGB->RGBA transform registered")
	}
	fn(dst, src, 8, 0, 8, 16)
	want := []byte{1, 2, 3, 0xff, 4, 5, 6, 0xff}
	if !bytes.Equal(dst, want) {
		t.Fatalf("rgbToRGBA = %v, want %v", dst, want)
	}
}

func TestGetTransformSlowGating(t *testing.T) {
	if GetTransform(video.UYVY, video.RGBA, false) != nil {
		t.Fatal("slow transform returned from fast-only lookup")
	}
	if GetTransform(video.UYVY, video.RGBA, true) == nil {
		t.Fatal("slow transform missing from full lookup")
	}
	if GetTransform(video.DXT1, video.RGBA, true) != nil {
		t.Fatal("unexpected transform for compressed source")
	}
}

func TestUYVYToRGBAGray(t *testing.T) {
	// Neutral chroma and mid luma decode to mid gray.
	src := []byte{128, 100, 128, 100}
	dst := make([]byte, 8)
	uyvyToRGBA(dst, src, 8, 0, 8, 16)
	for i := 0; i < 8; i += 4 {
		for c := 0; c < 3; c++ {
			if d := int(dst[i+c]) - 100; d < -2 || d > 2 {
				t.Fatalf("gray pixel decoded to %v", dst[i:i+4])
			}
		}
		if dst[i+3] != 0xff {
			t.Fatalf("alpha not opaque: %v", dst[i+3])
		}
	}
}

func interleavedFrame(linesize, height int) []byte {
	buf := make([]byte, linesize*height)
	for y := 0; y < height; y++ {
		for x := 0; x < linesize; x++ {
			buf[y*linesize+x] = byte(y)
		}
	}
	return buf
}

func TestInterlaceInPlaceMatchesCopy(t *testing.T) {
	const linesize, height = 16, 8
	fns := map[string]ChangeILFunc{
		"lower-to-merged": LowerToMerged,
		"upper-to-merged": UpperToMerged,
		"merged-to-upper": MergedToUpper,
	}
	for name, fn := range fns {
		src := interleavedFrame(linesize, height)

		var state1 []byte
		separate := make([]byte, len(src))
		fn(separate, src, linesize, height, &state1)

		var state2 []byte
		inplace := append([]byte(nil), src...)
		fn(inplace, inplace, linesize, height, &state2)

		if !bytes.Equal(separate, inplace) {
			t.Errorf("%s: in-place result differs from out-of-place", name)
		}
	}
}

func TestUpperToMergedRoundTrip(t *testing.T) {
	const linesize, height = 8, 6
	src := interleavedFrame(linesize, height)

	var s1, s2 []byte
	merged := make([]byte, len(src))
	UpperToMerged(merged, src, linesize, height, &s1)
	back := make([]byte, len(src))
	MergedToUpper(back, merged, linesize, height, &s2)

	if !bytes.Equal(back, src) {
		t.Fatal("upper->merged->upper is not the identity")
	}
}

func TestSelectILFunc(t *testing.T) {
	supported := []video.Interlacing{video.Progressive, video.InterlacedMerged}

	fn, out, ok := SelectILFunc(video.Progressive, supported)
	if fn != nil || out != video.Progressive || !ok {
		t.Fatal("native mode should need no conversion")
	}

	fn, out, ok = SelectILFunc(video.LowerFieldFirst, supported)
	if fn == nil || out != video.InterlacedMerged || !ok {
		t.Fatal("lower-field-first should convert to interlaced-merged")
	}

	fn, out, ok = SelectILFunc(video.SegmentedFrame, []video.Interlacing{video.UpperFieldFirst})
	if ok || fn != nil || out != video.SegmentedFrame {
		t.Fatal("impossible transition should report no path and keep the input mode")
	}
}
