package scene

import "github.com/go-gl/mathgl/mgl32"

// Camera is a perspective camera component. Its view matrix is the inverse
// of the owning entity's world matrix.
type Camera struct {
	FOV    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32

	primary bool
	jitter  mgl32.Vec2 // NDC offset
}

// NewCamera returns a camera with the given projection parameters.
func NewCamera(fov, aspect, near, far float32) *Camera {
	return &Camera{FOV: fov, Aspect: aspect, Near: near, Far: far}
}

// Primary reports whether the camera is the scene's primary camera.
func (c *Camera) Primary() bool { return c.primary }

// SetJitter offsets the projection by a sub-pixel amount expressed in
// pixels for a viewport of width x height.
func (c *Camera) SetJitter(pixels mgl32.Vec2, width, height int) {
	if width <= 0 || height <= 0 {
		c.jitter = mgl32.Vec2{}
		return
	}
	c.jitter = mgl32.Vec2{
		2 * pixels.X() / float32(width),
		2 * pixels.Y() / float32(height),
	}
}

// ClearJitter removes any projection offset.
func (c *Camera) ClearJitter() { c.jitter = mgl32.Vec2{} }

// Jitter returns the current NDC offset.
func (c *Camera) Jitter() mgl32.Vec2 { return c.jitter }

// Projection returns the jittered perspective projection.
func (c *Camera) Projection() mgl32.Mat4 {
	p := c.UnjitteredProjection()
	// clip.w = -z_view, so subtracting from the z column shifts clip x/y
	// by jitter*w: a constant NDC offset.
	p[8] -= c.jitter.X()
	p[9] -= c.jitter.Y()
	return p
}

// UnjitteredProjection returns the projection without the TAA offset.
func (c *Camera) UnjitteredProjection() mgl32.Mat4 {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// View is the per-frame camera state the renderer consumes.
type View struct {
	Entity     Entity
	Camera     *Camera
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
}

// ViewProjection returns Projection * View.
func (v View) ViewProjection() mgl32.Mat4 {
	return v.Projection.Mul4(v.View)
}

// AddCamera attaches c to e. The first camera added becomes primary.
func (s *Scene) AddCamera(e Entity, c *Camera) {
	if !s.Valid(e) || c == nil {
		return
	}
	s.cameras = put(s.cameras, e.ID, c)
	if !s.Valid(s.primary) || get(s.cameras, s.primary.ID) == nil {
		s.SetPrimaryCamera(e)
	}
}

// Camera returns e's camera or nil.
func (s *Scene) Camera(e Entity) *Camera {
	if !s.Valid(e) {
		return nil
	}
	return get(s.cameras, e.ID)
}

// SetPrimaryCamera makes e's camera primary and clears the flag on every
// other camera. Entities without a camera are ignored.
func (s *Scene) SetPrimaryCamera(e Entity) {
	c := s.Camera(e)
	if c == nil {
		return
	}
	for _, other := range s.cameras {
		if other != nil {
			other.primary = false
		}
	}
	c.primary = true
	s.primary = e
}

// PrimaryCamera returns the primary camera entity, or None.
func (s *Scene) PrimaryCamera() Entity {
	if s.Camera(s.primary) == nil {
		return None
	}
	return s.primary
}

// PrimaryView resolves the primary camera's matrices. ok is false when the
// scene has no primary camera.
func (s *Scene) PrimaryView() (v View, ok bool) {
	e := s.PrimaryCamera()
	if e.IsNone() {
		return View{}, false
	}
	c := s.Camera(e)
	world := s.WorldMatrix(e)
	return View{
		Entity:     e,
		Camera:     c,
		View:       world.Inv(),
		Projection: c.Projection(),
		Position:   world.Col(3).Vec3(),
	}, true
}
