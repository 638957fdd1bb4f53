package graphics

// Handle indexes a resource owned by an Arena.
type Handle int

type arenaEntry struct {
	tex Texture
	fb  *Framebuffer
}

// Arena owns GPU textures and framebuffers created through it and releases
// them in reverse creation order, so framebuffers go before the textures
// attached to them. Release must run before the context is destroyed.
type Arena struct {
	dev     Device
	entries []arenaEntry
}

// NewArena creates an arena that allocates on dev.
func NewArena(dev Device) *Arena {
	return &Arena{dev: dev}
}

// Texture creates a 2D texture owned by the arena.
func (a *Arena) Texture(width, height int32, format TextureFormat) (Texture, Handle, error) {
	tex, err := a.dev.CreateTexture(width, height, format, nil)
	if err != nil {
		return Texture{}, -1, err
	}
	a.entries = append(a.entries, arenaEntry{tex: tex})
	return tex, Handle(len(a.entries) - 1), nil
}

// TextureFromPixels creates an RGBA8 texture initialized from pixels.
func (a *Arena) TextureFromPixels(width, height int32, pixels []byte) (Texture, Handle, error) {
	tex, err := a.dev.CreateTexture(width, height, FormatRGBA8, pixels)
	if err != nil {
		return Texture{}, -1, err
	}
	a.entries = append(a.entries, arenaEntry{tex: tex})
	return tex, Handle(len(a.entries) - 1), nil
}

// DepthCubemap creates a depth cubemap owned by the arena.
func (a *Arena) DepthCubemap(size int32) (Texture, Handle, error) {
	tex, err := a.dev.CreateDepthCubemap(size)
	if err != nil {
		return Texture{}, -1, err
	}
	a.entries = append(a.entries, arenaEntry{tex: tex})
	return tex, Handle(len(a.entries) - 1), nil
}

// Framebuffer creates a framebuffer owned by the arena.
func (a *Arena) Framebuffer(color, depth Texture) (*Framebuffer, Handle, error) {
	fb, err := a.dev.CreateFramebuffer(color, depth)
	if err != nil {
		return nil, -1, err
	}
	a.entries = append(a.entries, arenaEntry{fb: fb})
	return fb, Handle(len(a.entries) - 1), nil
}

// Free releases a single resource early. Freed handles stay reserved.
func (a *Arena) Free(h Handle) {
	if h < 0 || int(h) >= len(a.entries) {
		return
	}
	a.release(&a.entries[h])
}

// Len returns the number of live resources.
func (a *Arena) Len() int {
	n := 0
	for _, e := range a.entries {
		if e.fb != nil || e.tex.ID != 0 {
			n++
		}
	}
	return n
}

// Release frees every resource in reverse creation order.
func (a *Arena) Release() {
	for i := len(a.entries) - 1; i >= 0; i-- {
		a.release(&a.entries[i])
	}
	a.entries = a.entries[:0]
}

func (a *Arena) release(e *arenaEntry) {
	if e.fb != nil {
		a.dev.DeleteFramebuffer(e.fb)
		e.fb = nil
	}
	if e.tex.ID != 0 {
		a.dev.DeleteTexture(e.tex)
		e.tex = Texture{}
	}
}
