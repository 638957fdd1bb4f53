package animation

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// VecKey is a translation or scale keyframe.
type VecKey struct {
	Time  float32
	Value mgl32.Vec3
}

// QuatKey is a rotation keyframe.
type QuatKey struct {
	Time  float32
	Value mgl32.Quat
}

// Channel animates one bone. Keys are sorted by time.
type Channel struct {
	Bone      int
	Positions []VecKey
	Rotations []QuatKey
	Scales    []VecKey
}

// Clip is a named set of channels.
type Clip struct {
	Name     string
	Duration float32
	Channels []Channel
}

// Sample writes the clip's pose at time t into poses, which must hold one
// entry per skeleton bone and start out as the rest pose.
func (c *Clip) Sample(t float32, poses []Pose) {
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Bone < 0 || ch.Bone >= len(poses) {
			continue
		}
		p := &poses[ch.Bone]
		if len(ch.Positions) > 0 {
			p.Translation = sampleVec(ch.Positions, t)
		}
		if len(ch.Rotations) > 0 {
			p.Rotation = sampleQuat(ch.Rotations, t)
		}
		if len(ch.Scales) > 0 {
			p.Scale = sampleVec(ch.Scales, t)
		}
	}
}

// keyIndex returns i such that keys[i].Time <= t < keys[i+1].Time, clamped.
func keyIndex(n int, timeAt func(int) float32, t float32) (int, float32) {
	if n == 1 || t <= timeAt(0) {
		return 0, 0
	}
	if t >= timeAt(n-1) {
		return n - 1, 0
	}
	i := sort.Search(n, func(i int) bool { return timeAt(i) > t }) - 1
	t0, t1 := timeAt(i), timeAt(i+1)
	if t1 <= t0 {
		return i, 0
	}
	return i, (t - t0) / (t1 - t0)
}

func sampleVec(keys []VecKey, t float32) mgl32.Vec3 {
	i, f := keyIndex(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if f == 0 {
		return keys[i].Value
	}
	a, b := keys[i].Value, keys[i+1].Value
	return a.Add(b.Sub(a).Mul(f))
}

func sampleQuat(keys []QuatKey, t float32) mgl32.Quat {
	i, f := keyIndex(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if f == 0 {
		return keys[i].Value
	}
	return mgl32.QuatSlerp(keys[i].Value, keys[i+1].Value, f)
}

// Sway builds a looping clip that rocks every bone of a chain around Z by
// up to amplitude degrees over duration seconds.
func Sway(bones int, amplitude, duration float32) *Clip {
	axis := mgl32.Vec3{0, 0, 1}
	a := mgl32.DegToRad(amplitude)
	c := &Clip{Name: "sway", Duration: duration}
	for b := 1; b < bones; b++ {
		c.Channels = append(c.Channels, Channel{
			Bone: b,
			Rotations: []QuatKey{
				{0, mgl32.QuatIdent()},
				{duration / 4, mgl32.QuatRotate(a, axis)},
				{duration * 3 / 4, mgl32.QuatRotate(-a, axis)},
				{duration, mgl32.QuatIdent()},
			},
		})
	}
	return c
}
