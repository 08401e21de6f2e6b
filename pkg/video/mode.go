package video

// Mode describes the geometry of substreams making up one picture.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeNormal
	ModeDual
	ModeStereo
	Mode3x1
	ModeTiled4K
)

type modeInfo struct {
	name string
	x, y int
}

var modeInfos = map[Mode]modeInfo{
	ModeUnknown: {"(unknown)", 0, 0},
	ModeNormal:  {"normal", 1, 1},
	ModeDual:    {"dual-link", 1, 2},
	ModeStereo:  {"3D", 2, 1},
	Mode3x1:     {"3x1", 3, 1},
	ModeTiled4K: {"tiled-4k", 2, 2},
}

func (m Mode) String() string {
	return modeInfos[m].name
}

// TilesX returns the number of tile columns of the mode.
func (m Mode) TilesX() int { return modeInfos[m].x }

// TilesY returns the number of tile rows of the mode.
func (m Mode) TilesY() int { return modeInfos[m].y }

// Tiles returns the total substream count of the mode.
func (m Mode) Tiles() int { return m.TilesX() * m.TilesY() }

// ModeFromString matches a textual mode name, ModeUnknown if no match.
func ModeFromString(s string) Mode {
	for m, info := range modeInfos {
		if m != ModeUnknown && info.name == s {
			return m
		}
	}
	return ModeUnknown
}

// GuessMode infers the video mode from the highest substream count seen
// on the wire. The sender does not signal its mode explicitly, so the
// substream index is the only hint available.
func GuessMode(substreams int) Mode {
	switch substreams {
	case 1:
		return ModeNormal
	case 2:
		return ModeStereo
	case 3:
		return Mode3x1
	case 4:
		return ModeTiled4K
	default:
		return ModeUnknown
	}
}
