package art

import "fmt"

// AnimationType is the 2-bit animation mode of a tile.
type AnimationType uint8

// All four bit patterns are assigned.
const (
	AnimNone AnimationType = iota
	AnimOscillating
	AnimForward
	AnimBackward
)

var animationNames = [...]string{"none", "oscillating", "forward", "backward"}

func (t AnimationType) String() string {
	return animationNames[t&3]
}

// MarshalText implements encoding.TextMarshaler.
func (t AnimationType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *AnimationType) UnmarshalText(b []byte) error {
	for i, n := range animationNames {
		if n == string(b) {
			*t = AnimationType(i)
			return nil
		}
	}
	return fmt.Errorf("art: unknown animation type %q", b)
}

// Animation is the decoded form of a tile's picanm word.
//
//	bits  0-5   frame count
//	bits  6-7   animation type
//	bits  8-15  signed y center offset
//	bits 16-23  signed x center offset
//	bits 24-27  speed
//	bits 28-31  other flags
type Animation struct {
	Frames  uint8
	Type    AnimationType
	YCenter int8
	XCenter int8
	Speed   uint8
	Flags   uint8
}

// ParseAnimation unpacks a picanm word.
func ParseAnimation(picanm uint32) Animation {
	return Animation{
		Frames:  uint8(picanm & 0x3f),
		Type:    AnimationType(picanm >> 6 & 0x03),
		YCenter: int8(uint8(picanm >> 8)),
		XCenter: int8(uint8(picanm >> 16)),
		Speed:   uint8(picanm >> 24 & 0x0f),
		Flags:   uint8(picanm >> 28 & 0x0f),
	}
}

// Picanm packs the animation back into its 32-bit form. Fields wider than
// their bit range are truncated.
func (a Animation) Picanm() uint32 {
	return uint32(a.Frames&0x3f) |
		uint32(a.Type&0x03)<<6 |
		uint32(uint8(a.YCenter))<<8 |
		uint32(uint8(a.XCenter))<<16 |
		uint32(a.Speed&0x0f)<<24 |
		uint32(a.Flags&0x0f)<<28
}

// IsZero reports whether the tile carries no animation data at all.
func (a Animation) IsZero() bool {
	return a == Animation{}
}
