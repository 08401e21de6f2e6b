package codecreg

import "github.com/openuv/videorx/pkg/video"

// ChangeILFunc converts a tile between interlacing representations in
// place. dst and src may be the same buffer; state holds per-substream
// scratch reused across frames.
type ChangeILFunc func(dst, src []byte, linesize, height int, state *[]byte)

func scratch(state *[]byte, size int) []byte {
	if cap(*state) < size {
		*state = make([]byte, size)
	}
	return (*state)[:size]
}

// fieldsToMerged interleaves two sequential fields into a merged frame.
// firstOdd selects whether the first field lands on odd output lines.
func fieldsToMerged(dst, src []byte, linesize, height int, state *[]byte, firstOdd bool) {
	tmp := scratch(state, linesize*height)
	copy(tmp, src[:linesize*height])

	half := height / 2
	first, second := 0, 1
	if firstOdd {
		first, second = 1, 0
	}
	for y := 0; y < half; y++ {
		copy(dst[(2*y+first)*linesize:(2*y+first)*linesize+linesize],
			tmp[y*linesize:(y+1)*linesize])
		copy(dst[(2*y+second)*linesize:(2*y+second)*linesize+linesize],
			tmp[(half+y)*linesize:(half+y+1)*linesize])
	}
}

// LowerToMerged interleaves a lower-field-first frame into merged form.
func LowerToMerged(dst, src []byte, linesize, height int, state *[]byte) {
	fieldsToMerged(dst, src, linesize, height, state, true)
}

// UpperToMerged interleaves an upper-field-first frame into merged form.
func UpperToMerged(dst, src []byte, linesize, height int, state *[]byte) {
	fieldsToMerged(dst, src, linesize, height, state, false)
}

// MergedToUpper splits a merged frame into sequential fields, upper first.
func MergedToUpper(dst, src []byte, linesize, height int, state *[]byte) {
	tmp := scratch(state, linesize*height)
	copy(tmp, src[:linesize*height])

	half := height / 2
	for y := 0; y < half; y++ {
		copy(dst[y*linesize:(y+1)*linesize],
			tmp[2*y*linesize:(2*y+1)*linesize])
		copy(dst[(half+y)*linesize:(half+y+1)*linesize],
			tmp[(2*y+1)*linesize:(2*y+2)*linesize])
	}
}

type ilTranscode struct {
	in, out video.Interlacing
	fn      ChangeILFunc
}

var ilTranscodes = []ilTranscode{
	{video.LowerFieldFirst, video.InterlacedMerged, LowerToMerged},
	{video.UpperFieldFirst, video.InterlacedMerged, UpperToMerged},
	{video.InterlacedMerged, video.UpperFieldFirst, MergedToUpper},
}

// SelectILFunc finds an interlacing conversion from the stream's mode to
// one the display supports. Returns a nil function when the input mode is
// natively supported (outIL is then the input mode) or when no path
// exists (outIL is the input mode and the caller should warn).
func SelectILFunc(in video.Interlacing, supported []video.Interlacing) (ChangeILFunc, video.Interlacing, bool) {
	for _, s := range supported {
		if in == s {
			return nil, in, true
		}
	}
	for _, s := range supported {
		for _, t := range ilTranscodes {
			if t.in == in && t.out == s {
				return t.fn, t.out, true
			}
		}
	}
	return nil, in, false
}
