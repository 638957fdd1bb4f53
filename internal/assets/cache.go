// Package assets is the resource cache the rendering core borrows shaders,
// models and textures from.
package assets

import (
	"fmt"
	"sync"

	"skirmish/internal/graphics"
)

// Resources is the lookup contract consumed by scene and render code.
// Returned pointers are borrowed; callers never free them.
type Resources interface {
	GetShader(name string) *graphics.Shader
	GetModel(name string) *Model
}

// MeshDeleter is implemented by devices that can free uploaded meshes.
type MeshDeleter interface {
	DeleteMesh(m *graphics.Mesh)
}

// Cache owns shaders, models and decoded textures by name.
type Cache struct {
	mu       sync.RWMutex
	shaders  map[string]*graphics.Shader
	models   map[string]*Model
	textures map[string]graphics.Texture
	nextID   uint32
}

var _ Resources = (*Cache)(nil)

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		shaders:  make(map[string]*graphics.Shader),
		models:   make(map[string]*Model),
		textures: make(map[string]graphics.Texture),
	}
}

// GetShader returns the named shader or nil.
func (c *Cache) GetShader(name string) *graphics.Shader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shaders[name]
}

// GetModel returns the named model or nil.
func (c *Cache) GetModel(name string) *Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.models[name]
}

// Texture returns the named texture. ok is false until the texture has
// been decoded and drained.
func (c *Cache) Texture(name string) (tex graphics.Texture, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tex, ok = c.textures[name]
	return tex, ok
}

// AddShader registers s under its name, replacing any previous entry.
func (c *Cache) AddShader(s *graphics.Shader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shaders[s.Name] = s
}

// LoadShader compiles a program from source and registers it. An already
// loaded shader of the same name is returned as is.
func (c *Cache) LoadShader(name, vertexSrc, geometrySrc, fragmentSrc string) (*graphics.Shader, error) {
	if s := c.GetShader(name); s != nil {
		return s, nil
	}
	s, err := graphics.NewShaderFromSource(name, vertexSrc, geometrySrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("could not load shader %q: %w", name, err)
	}
	c.AddShader(s)
	return s, nil
}

// AddModel registers pre-uploaded meshes as a model and assigns it an ID.
func (c *Cache) AddModel(name string, meshes []*graphics.Mesh, parts []MeshData) (*Model, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("model %q: %w", name, errEmptyMesh)
	}
	bounds, err := parts[0].Bounds()
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}
	for _, p := range parts[1:] {
		b, err := p.Bounds()
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
		bounds = bounds.Union(b)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.models[name]; ok {
		return m, nil
	}
	c.nextID++
	m := &Model{ID: c.nextID, Name: name, Meshes: meshes, Bounds: bounds}
	c.models[name] = m
	return m, nil
}

// LoadModel uploads parts through up and registers the result.
func (c *Cache) LoadModel(up MeshUploader, name string, parts ...MeshData) (*Model, error) {
	if m := c.GetModel(name); m != nil {
		return m, nil
	}
	meshes := make([]*graphics.Mesh, 0, len(parts))
	for i, p := range parts {
		mesh, err := up.UploadMesh(p.Vertices, p.Indices)
		if err != nil {
			return nil, fmt.Errorf("could not upload mesh %d of model %q: %w", i, name, err)
		}
		meshes = append(meshes, mesh)
	}
	return c.AddModel(name, meshes, parts)
}

func (c *Cache) setTexture(name string, tex graphics.Texture) (old graphics.Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old = c.textures[name]
	c.textures[name] = tex
	return old
}

// Release frees everything the cache owns. dev frees textures, and meshes
// when it also implements MeshDeleter.
func (c *Cache) Release(dev graphics.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.shaders {
		s.Delete()
	}
	clear(c.shaders)

	md, _ := dev.(MeshDeleter)
	for _, m := range c.models {
		if md == nil {
			continue
		}
		for _, mesh := range m.Meshes {
			md.DeleteMesh(mesh)
		}
	}
	clear(c.models)

	for _, tex := range c.textures {
		dev.DeleteTexture(tex)
	}
	clear(c.textures)
}
