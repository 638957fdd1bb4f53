// Package animation evaluates skeletal animation clips into bone matrices.
package animation

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
)

// Pose is a decomposed bone transform.
type Pose struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityPose returns the rest pose with no offset.
func IdentityPose() Pose {
	return Pose{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns T * R * S.
func (p Pose) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(p.Translation[0], p.Translation[1], p.Translation[2]).
		Mul4(p.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(p.Scale[0], p.Scale[1], p.Scale[2]))
}

// Bone is one joint of a skeleton.
type Bone struct {
	Name string
	// Parent is the index of the parent bone, -1 for roots. Parents always
	// precede their children.
	Parent int
	// InverseBind maps model space to bone space at bind time.
	InverseBind mgl32.Mat4
	// Rest is the local transform used when a clip has no channel for the bone.
	Rest Pose
}

// Skeleton is an immutable bone hierarchy shared by animators.
type Skeleton struct {
	Bones  []Bone
	byName map[string]int
}

// NewSkeleton validates bone order and builds the name index. Bones whose
// parent index does not precede them are re-rooted.
func NewSkeleton(bones []Bone) *Skeleton {
	s := &Skeleton{Bones: bones, byName: make(map[string]int, len(bones))}
	for i := range s.Bones {
		if s.Bones[i].Parent >= i {
			s.Bones[i].Parent = -1
		}
		s.byName[s.Bones[i].Name] = i
	}
	return s
}

// Bone returns the index of the named bone, or -1.
func (s *Skeleton) Bone(name string) int {
	if i, ok := s.byName[name]; ok {
		return i
	}
	return -1
}

// Chain builds a single-branch skeleton of n bones spaced along +Y, each
// bone's bind pose at y = i*spacing.
func Chain(n int, spacing float32) *Skeleton {
	bones := make([]Bone, n)
	for i := range bones {
		rest := IdentityPose()
		if i > 0 {
			rest.Translation = mgl32.Vec3{0, spacing, 0}
		}
		bones[i] = Bone{
			Name:        "bone" + strconv.Itoa(i),
			Parent:      i - 1,
			InverseBind: mgl32.Translate3D(0, -spacing*float32(i), 0),
			Rest:        rest,
		}
	}
	return NewSkeleton(bones)
}
