package w3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Version struct {
	Major uint16
	Minor uint16
}

func VersionFromUint32(v uint32) Version {
	return Version{Major: uint16(v >> 16), Minor: uint16(v)}
}

func (v Version) Uint32() uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v Version) Newer(than Version) bool {
	return v.Major > than.Major || (v.Major == than.Major && v.Minor > than.Minor)
}

// ChannelType is the animated attribute of a channel
type ChannelType uint8

const (
	ChannelX ChannelType = iota
	ChannelY
	ChannelZ
	ChannelXR
	ChannelYR
	ChannelZR
	ChannelQ
)

// VectorLen returns count of float components a value of this channel type
// holds, or 0 when the type is unknown.
func (t ChannelType) VectorLen() int {
	switch t {
	case ChannelX, ChannelY, ChannelZ, ChannelXR, ChannelYR, ChannelZR:
		return 1
	case ChannelQ:
		return 4
	default:
		return 0
	}
}

func (t ChannelType) Valid() bool {
	return t.VectorLen() != 0
}

func (t ChannelType) IsQuaternion() bool {
	return t == ChannelQ
}

func (t ChannelType) String() string {
	switch t {
	case ChannelX:
		return "X"
	case ChannelY:
		return "Y"
	case ChannelZ:
		return "Z"
	case ChannelXR:
		return "XR"
	case ChannelYR:
		return "YR"
	case ChannelZR:
		return "ZR"
	case ChannelQ:
		return "Q"
	default:
		return fmt.Sprintf("ChannelType(%d)", uint8(t))
	}
}

// CheckVectorLen validates that a stored vector length is the one derived
// from the channel type.
func CheckVectorLen(t ChannelType, vectorLen uint8) error {
	want := t.VectorLen()
	if want == 0 {
		return Invariantf("unknown channel type %d", uint8(t))
	}
	if int(vectorLen) != want {
		return Invariantf("channel type %v requires vector length %d, got %d", t, want, vectorLen)
	}
	return nil
}

// Value is a scalar (one component) or a quaternion (four components in
// x, y, z, w order, the order they are stored in files).
type Value []float32

func ScalarValue(f float32) Value {
	return Value{f}
}

func QuatValue(q mgl32.Quat) Value {
	return Value{q.V[0], q.V[1], q.V[2], q.W}
}

func ZeroValue(t ChannelType) Value {
	v := make(Value, t.VectorLen())
	if t.IsQuaternion() {
		v[3] = 1
	}
	return v
}

func (v Value) Scalar() float32 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func (v Value) Quat() mgl32.Quat {
	if len(v) != 4 {
		return mgl32.QuatIdent()
	}
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

func (v Value) Clone() Value {
	return append(Value(nil), v...)
}

func (v Value) Equal(o Value) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

func (v Value) ApproxEqual(o Value, eps float32) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		d := v[i] - o[i]
		if d > eps || d < -eps {
			return false
		}
	}
	return true
}
