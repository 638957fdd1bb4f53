package scene

import (
	"skirmish/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is the per-entity spatial component. Position, Rotation and
// Scale are plain fields written by physics sync, animation and scripts;
// the cached matrices are revalidated lazily on read.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	self     Entity
	parent   Entity
	children []Entity

	local        mgl32.Mat4
	lastPosition mgl32.Vec3
	lastRotation mgl32.Quat
	lastScale    mgl32.Vec3
	localVersion uint64

	world         mgl32.Mat4
	worldValid    bool
	worldVersion  uint64 // bumped each time world is recomputed
	worldLocalVer uint64 // localVersion the world cache was built from
	worldParent   Entity // parent the world cache was built with
	parentVersion uint64 // parent's worldVersion when the cache was built
}

// Hierarchy resolves entities to transforms. It returns nil for invalid
// entities and entities without a transform.
type Hierarchy interface {
	Transform(e Entity) *Transform
}

func newTransform(self Entity) *Transform {
	return &Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		self:     self,
	}
}

// Entity returns the entity owning the transform.
func (t *Transform) Entity() Entity { return t.self }

// Parent returns the parent reference, which may be dangling.
func (t *Transform) Parent() Entity { return t.parent }

// Children returns the ordered child list. The slice must not be modified.
func (t *Transform) Children() []Entity { return t.children }

// LocalVersion returns the local matrix version.
func (t *Transform) LocalVersion() uint64 { return t.localVersion }

// LocalMatrix returns translate * rotate * scale. The matrix is rebuilt,
// and the local version bumped, only when a field differs from the values
// it was last built from.
func (t *Transform) LocalMatrix() mgl32.Mat4 {
	if t.localVersion != 0 &&
		t.Position == t.lastPosition &&
		t.Rotation == t.lastRotation &&
		t.Scale == t.lastScale {
		return t.local
	}
	t.local = geom.Compose(t.Position, t.Rotation, t.Scale)
	t.lastPosition = t.Position
	t.lastRotation = t.Rotation
	t.lastScale = t.Scale
	t.localVersion++
	return t.local
}

// WorldMatrix returns parentWorld * local, resolving ancestors first. The
// cached value is reused unless the local version, the parent reference or
// the parent's world version changed. A parent that no longer resolves is
// treated as no parent.
func (t *Transform) WorldMatrix(h Hierarchy) mgl32.Mat4 {
	local := t.LocalMatrix()

	var parent *Transform
	if !t.parent.IsNone() && h != nil {
		parent = h.Transform(t.parent)
	}

	if parent == nil {
		if !t.worldValid || !t.worldParent.IsNone() || t.worldLocalVer != t.localVersion {
			t.world = local
			t.worldParent = None
			t.parentVersion = 0
			t.commitWorld()
		}
		return t.world
	}

	pw := parent.WorldMatrix(h)
	if !t.worldValid ||
		t.worldParent != t.parent ||
		t.parentVersion != parent.worldVersion ||
		t.worldLocalVer != t.localVersion {
		t.world = pw.Mul4(local)
		t.worldParent = t.parent
		t.parentVersion = parent.worldVersion
		t.commitWorld()
	}
	return t.world
}

func (t *Transform) commitWorld() {
	t.worldLocalVer = t.localVersion
	t.worldVersion++
	t.worldValid = true
}

// WorldPosition returns the translation of the world matrix.
func (t *Transform) WorldPosition(h Hierarchy) mgl32.Vec3 {
	return t.WorldMatrix(h).Col(3).Vec3()
}

// LookAt orients the transform so its -Z axis points at target.
func (t *Transform) LookAt(target, up mgl32.Vec3) {
	dir := target.Sub(t.Position)
	if dir.Len() == 0 {
		return
	}
	t.Rotation = mgl32.QuatLookAtV(t.Position, target, up)
}

func (t *Transform) removeChild(child Entity) {
	for i, c := range t.children {
		if c == child {
			t.children = append(t.children[:i], t.children[i+1:]...)
			return
		}
	}
}
