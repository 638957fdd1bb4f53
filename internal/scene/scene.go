package scene

import (
	"skirmish/internal/animation"
	"skirmish/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// maxHierarchyDepth bounds the ancestor walk used to reject cycles.
const maxHierarchyDepth = 1024

// Scene is the entity container consumed by the renderer: sparse component
// slices indexed by entity ID. It is not safe for concurrent mutation.
type Scene struct {
	slots []slot
	free  []uint32

	transforms  []*Transform
	renderables []*Renderable
	materials   []*Material
	animators   []*animation.Animator
	lights      []*Light
	cameras     []*Camera

	primary Entity
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{}
}

// Create instantiates an entity with an identity transform.
func (s *Scene) Create() Entity {
	var e Entity
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		sl := &s.slots[id]
		sl.version = sl.last + 1
		e = Entity{ID: id, Version: sl.version}
	} else {
		s.slots = append(s.slots, slot{version: 1})
		e = Entity{ID: uint32(len(s.slots) - 1), Version: 1}
	}
	s.transforms = put(s.transforms, e.ID, newTransform(e))
	return e
}

// Valid reports whether e refers to a live entity.
func (s *Scene) Valid(e Entity) bool {
	if e.IsNone() || int(e.ID) >= len(s.slots) {
		return false
	}
	return s.slots[e.ID].version == e.Version
}

// Len returns the number of live entities.
func (s *Scene) Len() int {
	return len(s.slots) - len(s.free)
}

// Transform implements Hierarchy.
func (s *Scene) Transform(e Entity) *Transform {
	if !s.Valid(e) {
		return nil
	}
	return get(s.transforms, e.ID)
}

// Destroy removes e and its components. Children are detached and become
// roots; they are not destroyed.
func (s *Scene) Destroy(e Entity) {
	if !s.Valid(e) {
		return
	}
	if t := get(s.transforms, e.ID); t != nil {
		if p := s.Transform(t.parent); p != nil {
			p.removeChild(e)
		}
		for _, c := range t.children {
			if ct := s.Transform(c); ct != nil && ct.parent == e {
				ct.parent = None
			}
		}
	}
	s.release(e)
}

// DestroyRecursive destroys e and its whole subtree.
func (s *Scene) DestroyRecursive(e Entity) {
	t := s.Transform(e)
	if t == nil {
		return
	}
	children := append([]Entity(nil), t.children...)
	for _, c := range children {
		s.DestroyRecursive(c)
	}
	s.Destroy(e)
}

func (s *Scene) release(e Entity) {
	id := e.ID
	s.transforms = put[Transform](s.transforms, id, nil)
	s.renderables = put[Renderable](s.renderables, id, nil)
	s.materials = put[Material](s.materials, id, nil)
	s.animators = put[animation.Animator](s.animators, id, nil)
	s.lights = put[Light](s.lights, id, nil)
	s.cameras = put[Camera](s.cameras, id, nil)
	if s.primary == e {
		s.primary = None
	}

	sl := &s.slots[id]
	sl.last = sl.version
	sl.version = 0
	s.free = append(s.free, id)
}

// Parent returns e's parent, or None if e has none or it no longer exists.
func (s *Scene) Parent(e Entity) Entity {
	t := s.Transform(e)
	if t == nil || !s.Valid(t.parent) {
		return None
	}
	return t.parent
}

// Children returns the live children of e in order.
func (s *Scene) Children(e Entity) []Entity {
	t := s.Transform(e)
	if t == nil {
		return nil
	}
	out := make([]Entity, 0, len(t.children))
	for _, c := range t.children {
		if s.Valid(c) {
			out = append(out, c)
		}
	}
	return out
}

// SetParent moves child under parent, updating both child lists. It is a
// no-op for invalid children, self-parenting, an unchanged parent, and any
// parent that has child as an ancestor. With keepWorld the child's local
// TRS is recomputed so its world transform is unchanged; an invalid parent
// makes child a root.
func (s *Scene) SetParent(child, parent Entity, keepWorld bool) {
	ct := s.Transform(child)
	if ct == nil || parent == child {
		return
	}

	pt := s.Transform(parent)
	if pt == nil {
		parent = None
	}
	if ct.parent == parent {
		return
	}
	if pt != nil && s.isAncestor(child, parent) {
		return
	}

	var oldWorld mgl32.Mat4
	if keepWorld {
		oldWorld = ct.WorldMatrix(s)
	}

	if old := s.Transform(ct.parent); old != nil {
		old.removeChild(child)
	}
	ct.parent = parent
	if pt != nil {
		pt.children = append(pt.children, child)
	}

	if keepWorld {
		local := oldWorld
		if pt != nil {
			local = pt.WorldMatrix(s).Inv().Mul4(oldWorld)
		}
		ct.Position, ct.Rotation, ct.Scale = geom.Decompose(local)
	}
}

// Detach makes child a root.
func (s *Scene) Detach(child Entity, keepWorld bool) {
	s.SetParent(child, None, keepWorld)
}

// RemoveChild detaches child from parent if parent is its current parent.
func (s *Scene) RemoveChild(parent, child Entity) {
	ct := s.Transform(child)
	if ct == nil || ct.parent != parent {
		return
	}
	s.SetParent(child, None, false)
}

// isAncestor walks up from e looking for candidate. Chains deeper than
// maxHierarchyDepth count as cyclic.
func (s *Scene) isAncestor(candidate, e Entity) bool {
	cur := e
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		if cur == candidate {
			return true
		}
		t := s.Transform(cur)
		if t == nil || t.parent.IsNone() {
			return false
		}
		cur = t.parent
	}
	return true
}

// WorldMatrix returns e's world matrix, identity for invalid entities.
func (s *Scene) WorldMatrix(e Entity) mgl32.Mat4 {
	t := s.Transform(e)
	if t == nil {
		return mgl32.Ident4()
	}
	return t.WorldMatrix(s)
}

// ApplyPhysicsPose writes a simulated pose into e's transform. This is the
// physics synchronization contract: plain field writes, picked up by the
// next matrix read.
func (s *Scene) ApplyPhysicsPose(e Entity, position mgl32.Vec3, rotation mgl32.Quat) {
	t := s.Transform(e)
	if t == nil {
		return
	}
	t.Position = position
	t.Rotation = rotation
}

// AddRenderable attaches r to e.
func (s *Scene) AddRenderable(e Entity, r *Renderable) {
	if s.Valid(e) {
		s.renderables = put(s.renderables, e.ID, r)
	}
}

// Renderable returns e's renderable or nil.
func (s *Scene) Renderable(e Entity) *Renderable {
	if !s.Valid(e) {
		return nil
	}
	return get(s.renderables, e.ID)
}

// SetMaterial attaches m to e.
func (s *Scene) SetMaterial(e Entity, m *Material) {
	if s.Valid(e) {
		s.materials = put(s.materials, e.ID, m)
	}
}

// Material returns e's material or nil.
func (s *Scene) Material(e Entity) *Material {
	if !s.Valid(e) {
		return nil
	}
	return get(s.materials, e.ID)
}

// SetAnimator attaches a skeletal animator to e.
func (s *Scene) SetAnimator(e Entity, a *animation.Animator) {
	if s.Valid(e) {
		s.animators = put(s.animators, e.ID, a)
	}
}

// Animator returns e's animator or nil.
func (s *Scene) Animator(e Entity) *animation.Animator {
	if !s.Valid(e) {
		return nil
	}
	return get(s.animators, e.ID)
}

// Animators appends every live animator to dst.
func (s *Scene) Animators(dst []*animation.Animator) []*animation.Animator {
	for id, a := range s.animators {
		if a != nil && s.slots[id].version != 0 {
			dst = append(dst, a)
		}
	}
	return dst
}

// AddLight attaches l to e.
func (s *Scene) AddLight(e Entity, l *Light) {
	if s.Valid(e) {
		s.lights = put(s.lights, e.ID, l)
	}
}

// Light returns e's light or nil.
func (s *Scene) Light(e Entity) *Light {
	if !s.Valid(e) {
		return nil
	}
	return get(s.lights, e.ID)
}

// EachRenderable calls fn for every entity with both a transform and a
// renderable, in entity ID order.
func (s *Scene) EachRenderable(fn func(e Entity, t *Transform, r *Renderable)) {
	for id, r := range s.renderables {
		if r == nil {
			continue
		}
		t := get(s.transforms, uint32(id))
		if t == nil {
			continue
		}
		fn(t.self, t, r)
	}
}

// EachLight calls fn for every entity with both a transform and a light.
func (s *Scene) EachLight(fn func(e Entity, t *Transform, l *Light)) {
	for id, l := range s.lights {
		if l == nil {
			continue
		}
		t := get(s.transforms, uint32(id))
		if t == nil {
			continue
		}
		fn(t.self, t, l)
	}
}

func get[T any](s []*T, id uint32) *T {
	if int(id) >= len(s) {
		return nil
	}
	return s[id]
}

func put[T any](s []*T, id uint32, v *T) []*T {
	if int(id) >= len(s) {
		if v == nil {
			return s
		}
		s = append(s, make([]*T, int(id)+1-len(s))...)
	}
	s[id] = v
	return s
}
