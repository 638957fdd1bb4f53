package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestPressEdgeLastsOneFrame(t *testing.T) {
	m := NewManager()
	m.HandleKeyEvent(glfw.KeyF1, glfw.Press)

	if !m.JustPressed(ActionCycleShadows) || !m.IsActive(ActionCycleShadows) {
		t.Fatalf("press not recorded")
	}
	m.PostUpdate()
	if m.JustPressed(ActionCycleShadows) {
		t.Fatalf("edge survived PostUpdate")
	}
	if !m.IsActive(ActionCycleShadows) {
		t.Fatalf("held state lost")
	}

	m.HandleKeyEvent(glfw.KeyF1, glfw.Repeat)
	if m.JustPressed(ActionCycleShadows) {
		t.Fatalf("repeat produced a new edge")
	}

	m.HandleKeyEvent(glfw.KeyF1, glfw.Release)
	if !m.JustReleased(ActionCycleShadows) || m.IsActive(ActionCycleShadows) {
		t.Fatalf("release not recorded")
	}
}

func TestTapWithinOneFrame(t *testing.T) {
	m := NewManager()
	m.HandleKeyEvent(glfw.KeyF12, glfw.Press)
	m.HandleKeyEvent(glfw.KeyF12, glfw.Release)
	if !m.JustPressed(ActionCapture) {
		t.Fatalf("tap lost")
	}
}

func TestSeveralKeysOneAction(t *testing.T) {
	m := NewManager()
	m.HandleKeyEvent(glfw.KeyLeft, glfw.Press)
	if !m.IsActive(ActionOrbitLeft) {
		t.Fatalf("arrow binding missing")
	}
	m.UnbindKey(glfw.KeyA)
	m.HandleKeyEvent(glfw.KeyA, glfw.Press)
	m.HandleKeyEvent(glfw.KeyLeft, glfw.Release)
	if m.IsActive(ActionOrbitLeft) {
		t.Fatalf("unbound key still drives the action")
	}
}

func TestOutOfRangeActionIgnored(t *testing.T) {
	m := NewManager()
	m.BindKey(glfw.KeyZ, ActionCount)
	m.HandleKeyEvent(glfw.KeyZ, glfw.Press)
	if m.IsActive(ActionCount) || m.JustPressed(-1) {
		t.Fatalf("out of range action reported active")
	}
}
