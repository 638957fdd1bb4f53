package assets

import (
	"errors"

	"skirmish/internal/geom"
	"skirmish/internal/graphics"

	"github.com/go-gl/mathgl/mgl32"
)

// Model is a loaded mesh set with its local-space bounds. Models are owned
// by the Cache; renderables borrow them.
type Model struct {
	ID     uint32
	Name   string
	Meshes []*graphics.Mesh
	Bounds geom.AABB
}

// MeshData is CPU-side interleaved geometry in the graphics vertex layout.
type MeshData struct {
	Vertices []float32
	Indices  []uint32
}

// MeshUploader turns CPU geometry into GPU meshes. GLDevice implements it.
type MeshUploader interface {
	UploadMesh(vertices []float32, indices []uint32) (*graphics.Mesh, error)
}

var errEmptyMesh = errors.New("assets: mesh has no vertices")

// Bounds computes the local AABB of interleaved vertex data.
func (m MeshData) Bounds() (geom.AABB, error) {
	n := len(m.Vertices) / graphics.VertexFloats
	if n == 0 {
		return geom.AABB{}, errEmptyMesh
	}
	lo := mgl32.Vec3{m.Vertices[0], m.Vertices[1], m.Vertices[2]}
	hi := lo
	for i := 1; i < n; i++ {
		o := i * graphics.VertexFloats
		for a := 0; a < 3; a++ {
			v := m.Vertices[o+a]
			lo[a] = min(lo[a], v)
			hi[a] = max(hi[a], v)
		}
	}
	return geom.AABB{Min: lo, Max: hi}, nil
}

func appendVertex(dst []float32, pos, normal mgl32.Vec3, u, v float32) []float32 {
	return append(dst,
		pos[0], pos[1], pos[2],
		normal[0], normal[1], normal[2],
		u, v,
		0, 0, 0, 0,
		1, 0, 0, 0,
	)
}

// Cube returns a unit cube centred on the origin with per-face normals.
func Cube() MeshData {
	faces := []struct {
		n, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	var md MeshData
	for _, f := range faces {
		base := uint32(len(md.Vertices) / graphics.VertexFloats)
		c := f.n.Mul(0.5)
		u := f.u.Mul(0.5)
		v := f.v.Mul(0.5)
		md.Vertices = appendVertex(md.Vertices, c.Sub(u).Sub(v), f.n, 0, 0)
		md.Vertices = appendVertex(md.Vertices, c.Add(u).Sub(v), f.n, 1, 0)
		md.Vertices = appendVertex(md.Vertices, c.Add(u).Add(v), f.n, 1, 1)
		md.Vertices = appendVertex(md.Vertices, c.Sub(u).Add(v), f.n, 0, 1)
		md.Indices = append(md.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return md
}

// Plane returns a size x size quad on the XZ plane facing +Y.
func Plane(size float32) MeshData {
	h := size / 2
	n := mgl32.Vec3{0, 1, 0}
	var md MeshData
	md.Vertices = appendVertex(md.Vertices, mgl32.Vec3{-h, 0, h}, n, 0, 0)
	md.Vertices = appendVertex(md.Vertices, mgl32.Vec3{h, 0, h}, n, size, 0)
	md.Vertices = appendVertex(md.Vertices, mgl32.Vec3{h, 0, -h}, n, size, size)
	md.Vertices = appendVertex(md.Vertices, mgl32.Vec3{-h, 0, -h}, n, 0, size)
	md.Indices = []uint32{0, 1, 2, 0, 2, 3}
	return md
}

// SkinnedColumn returns a vertical box of the given height split into
// segments, each ring weighted fully to the bone of its segment. It is the
// demo's animated mesh.
func SkinnedColumn(height float32, segments int) MeshData {
	if segments < 1 {
		segments = 1
	}
	const r = 0.25
	corners := [4][2]float32{{-r, -r}, {r, -r}, {r, r}, {-r, r}}
	var md MeshData
	for s := 0; s <= segments; s++ {
		y := height * float32(s) / float32(segments)
		bone := s
		if bone == segments {
			bone = segments - 1
		}
		for _, c := range corners {
			n := mgl32.Vec3{c[0], 0, c[1]}.Normalize()
			md.Vertices = append(md.Vertices,
				c[0], y, c[1],
				n[0], n[1], n[2],
				0, y/height,
				float32(bone), 0, 0, 0,
				1, 0, 0, 0,
			)
		}
	}
	for s := 0; s < segments; s++ {
		lo := uint32(s * 4)
		hi := lo + 4
		for i := uint32(0); i < 4; i++ {
			j := (i + 1) % 4
			md.Indices = append(md.Indices, lo+i, lo+j, hi+j, lo+i, hi+j, hi+i)
		}
	}
	return md
}
