package render

import (
	"cmp"
	"slices"

	"skirmish/internal/animation"
	"skirmish/internal/geom"
	"skirmish/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

// Entry is one visible draw, resolved once per frame.
type Entry struct {
	Entity     scene.Entity
	Transform  *scene.Transform
	Renderable *scene.Renderable
	World      mgl32.Mat4
	Bounds     geom.AABB
	Animator   *animation.Animator
	Material   *scene.Material

	// materialRank orders materials by first appearance in the frame; nil is 0.
	materialRank int
}

func (e *Entry) shaderID() uint32 { return e.Renderable.Shader.ID }
func (e *Entry) modelID() uint32  { return e.Renderable.Model.ID }

// CullOptions controls queue building.
type CullOptions struct {
	// Origin is the distance culling origin.
	Origin mgl32.Vec3
	// MaxDistance <= 0 disables distance culling.
	MaxDistance float32
	// Frustum is nil when frustum culling is disabled.
	Frustum *geom.Frustum
	// SphereRadius > 0 additionally rejects boxes outside the sphere.
	SphereCenter mgl32.Vec3
	SphereRadius float32
	// ShadowCasters keeps only renderables with CastsShadow set.
	ShadowCasters bool
}

// Queue is the frame-local list of draws. Its storage is reused between
// frames but its contents never outlive one.
type Queue struct {
	entries   []Entry
	culled    int
	materials map[*scene.Material]int
}

// Entries returns the queue contents. Valid until the next Build.
func (q *Queue) Entries() []Entry { return q.entries }

// Len returns the number of queued draws.
func (q *Queue) Len() int { return len(q.entries) }

// Culled returns how many candidates the last Build rejected by distance
// or frustum.
func (q *Queue) Culled() int { return q.culled }

// Build collects visible renderables from s and sorts them by shader,
// model and material, so entries that can share an instanced draw are
// adjacent. Renderables with a nil model or shader, or with Visible cleared,
// are skipped without counting as culled.
func (q *Queue) Build(s *scene.Scene, opt CullOptions) {
	clear(q.entries)
	q.entries = q.entries[:0]
	q.culled = 0
	if q.materials == nil {
		q.materials = make(map[*scene.Material]int)
	}
	clear(q.materials)

	maxSq := opt.MaxDistance * opt.MaxDistance
	s.EachRenderable(func(e scene.Entity, t *scene.Transform, r *scene.Renderable) {
		if r.Model == nil || r.Shader == nil || !r.Visible {
			return
		}
		if opt.ShadowCasters && !r.CastsShadow {
			return
		}

		world := t.WorldMatrix(s)
		bounds := r.Model.Bounds.Transform(world)

		if opt.MaxDistance > 0 && geom.DistanceSqToAABB(opt.Origin, bounds.Min, bounds.Max) > maxSq {
			q.culled++
			return
		}
		if opt.Frustum != nil && !opt.Frustum.IsBoxVisible(bounds.Min, bounds.Max) {
			q.culled++
			return
		}
		if opt.SphereRadius > 0 && !geom.BoxIntersectsSphere(bounds.Min, bounds.Max, opt.SphereCenter, opt.SphereRadius) {
			q.culled++
			return
		}

		mat := s.Material(e)
		q.entries = append(q.entries, Entry{
			Entity:       e,
			Transform:    t,
			Renderable:   r,
			World:        world,
			Bounds:       bounds,
			Animator:     s.Animator(e),
			Material:     mat,
			materialRank: q.rankMaterial(mat),
		})
	})

	slices.SortStableFunc(q.entries, func(a, b Entry) int {
		if c := cmp.Compare(a.shaderID(), b.shaderID()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.modelID(), b.modelID()); c != 0 {
			return c
		}
		return cmp.Compare(a.materialRank, b.materialRank)
	})
}

func (q *Queue) rankMaterial(m *scene.Material) int {
	if m == nil {
		return 0
	}
	rank, ok := q.materials[m]
	if !ok {
		rank = len(q.materials) + 1
		q.materials[m] = rank
	}
	return rank
}
