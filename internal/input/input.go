// Package input maps physical keys to logical demo actions and tracks
// per-frame press edges.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action represents a logical action, not a physical key
type Action int

const (
	ActionQuit Action = iota
	ActionCycleShadows
	ActionToggleCulling
	ActionToggleInstancing
	ActionCycleAntiAliasing
	ActionToggleNoTexture
	ActionToggleToneMap
	ActionCapture
	ActionOrbitLeft
	ActionOrbitRight
	ActionZoomIn
	ActionZoomOut
	ActionPause
	ActionCount // Sentinel value for array sizing
)

// Manager tracks key state per action. Key events arrive through
// HandleKeyEvent; edges are cleared by PostUpdate at the end of a frame.
type Manager struct {
	mu sync.RWMutex

	// One key can map to several actions
	keyToActions map[glfw.Key][]Action

	current      [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool
}

// NewManager creates a Manager with the default demo bindings.
func NewManager() *Manager {
	m := &Manager{keyToActions: make(map[glfw.Key][]Action)}

	m.BindKey(glfw.KeyEscape, ActionQuit)
	m.BindKey(glfw.KeyF1, ActionCycleShadows)
	m.BindKey(glfw.KeyF2, ActionToggleCulling)
	m.BindKey(glfw.KeyF3, ActionToggleInstancing)
	m.BindKey(glfw.KeyF4, ActionCycleAntiAliasing)
	m.BindKey(glfw.KeyF5, ActionToggleNoTexture)
	m.BindKey(glfw.KeyF6, ActionToggleToneMap)
	m.BindKey(glfw.KeyF12, ActionCapture)
	m.BindKey(glfw.KeyA, ActionOrbitLeft)
	m.BindKey(glfw.KeyLeft, ActionOrbitLeft)
	m.BindKey(glfw.KeyD, ActionOrbitRight)
	m.BindKey(glfw.KeyRight, ActionOrbitRight)
	m.BindKey(glfw.KeyW, ActionZoomIn)
	m.BindKey(glfw.KeyUp, ActionZoomIn)
	m.BindKey(glfw.KeyS, ActionZoomOut)
	m.BindKey(glfw.KeyDown, ActionZoomOut)
	m.BindKey(glfw.KeySpace, ActionPause)

	return m
}

// BindKey binds a physical key to a logical action.
func (m *Manager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyToActions[key] = append(m.keyToActions[key], action)
}

// UnbindKey removes all action bindings for a key.
func (m *Manager) UnbindKey(key glfw.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keyToActions, key)
}

// HandleKeyEvent records a key event. Repeats count as held.
func (m *Manager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	actions, ok := m.keyToActions[key]
	if !ok {
		return
	}
	pressed := action == glfw.Press || action == glfw.Repeat
	for _, a := range actions {
		// Edges are detected when the event arrives so a press and release
		// within one frame is not lost.
		if pressed && !m.current[a] {
			m.justPressed[a] = true
		}
		if !pressed && m.current[a] {
			m.justReleased[a] = true
		}
		m.current[a] = pressed
	}
}

// Attach installs the key callback on window.
func (m *Manager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		m.HandleKeyEvent(key, action)
	})
}

// PostUpdate clears the edge flags. Call it once at the end of each frame.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.justPressed[:])
	clear(m.justReleased[:])
}

// IsActive reports whether the action is held down.
func (m *Manager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current[action]
}

// JustPressed reports whether the action was pressed this frame.
func (m *Manager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justPressed[action]
}

// JustReleased reports whether the action was released this frame.
func (m *Manager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justReleased[action]
}
