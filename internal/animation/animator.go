package animation

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Animator plays one clip on a skeleton and holds the resulting skinning
// matrices. An animator is updated by one goroutine at a time; the renderer
// reads BoneMatrices only after the update barrier.
type Animator struct {
	Skeleton *Skeleton
	Clip     *Clip
	Speed    float32
	Loop     bool

	time     float32
	poses    []Pose
	global   []mgl32.Mat4
	matrices []mgl32.Mat4
}

// NewAnimator creates an animator in bind pose.
func NewAnimator(s *Skeleton) *Animator {
	n := len(s.Bones)
	a := &Animator{
		Skeleton: s,
		Speed:    1,
		Loop:     true,
		poses:    make([]Pose, n),
		global:   make([]mgl32.Mat4, n),
		matrices: make([]mgl32.Mat4, n),
	}
	for i := range a.matrices {
		a.matrices[i] = mgl32.Ident4()
	}
	return a
}

// Play starts clip from the beginning.
func (a *Animator) Play(clip *Clip, loop bool) {
	a.Clip = clip
	a.Loop = loop
	a.time = 0
}

// Time returns the playback position in seconds.
func (a *Animator) Time() float32 { return a.time }

// Update advances playback by dt seconds and recomputes bone matrices.
func (a *Animator) Update(dt float32) {
	a.advance(dt)

	bones := a.Skeleton.Bones
	for i := range bones {
		a.poses[i] = bones[i].Rest
	}
	if a.Clip != nil {
		a.Clip.Sample(a.time, a.poses)
	}
	for i := range bones {
		local := a.poses[i].Matrix()
		if p := bones[i].Parent; p >= 0 {
			a.global[i] = a.global[p].Mul4(local)
		} else {
			a.global[i] = local
		}
		a.matrices[i] = a.global[i].Mul4(bones[i].InverseBind)
	}
}

func (a *Animator) advance(dt float32) {
	if a.Clip == nil || a.Clip.Duration <= 0 {
		return
	}
	a.time += dt * a.Speed
	d := a.Clip.Duration
	if a.Loop {
		a.time = float32(math.Mod(float64(a.time), float64(d)))
		if a.time < 0 {
			a.time += d
		}
		return
	}
	a.time = max(0, min(a.time, d))
}

// BoneMatrices returns the skinning matrices from the last Update. The
// slice is owned by the animator.
func (a *Animator) BoneMatrices() []mgl32.Mat4 {
	return a.matrices
}
