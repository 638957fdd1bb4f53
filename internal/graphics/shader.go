package graphics

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Shader is a linked OpenGL program. Shaders are owned by the resource
// cache; the renderer only borrows them.
type Shader struct {
	ID   uint32
	Name string
}

// NewShader creates a program from vertex and fragment shader source files.
func NewShader(name, vertexPath, fragmentPath string) (*Shader, error) {
	vertexSource, err := os.ReadFile(vertexPath)
	if err != nil {
		return nil, fmt.Errorf("could not read vertex shader file: %w", err)
	}

	fragmentSource, err := os.ReadFile(fragmentPath)
	if err != nil {
		return nil, fmt.Errorf("could not read fragment shader file: %w", err)
	}

	return NewShaderFromSource(name, string(vertexSource), "", string(fragmentSource))
}

// NewShaderFromSource compiles and links a program. geometrySrc may be empty.
func NewShaderFromSource(name, vertexSrc, geometrySrc, fragmentSrc string) (*Shader, error) {
	program, err := compileProgram(vertexSrc, geometrySrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	return &Shader{ID: program, Name: name}, nil
}

// Delete releases the program.
func (s *Shader) Delete() {
	if s != nil && s.ID != 0 {
		gl.DeleteProgram(s.ID)
		s.ID = 0
	}
}

func compileProgram(vertexSrc, geometrySrc, fragmentSrc string) (uint32, error) {
	stages := []struct {
		src  string
		kind uint32
	}{
		{vertexSrc, gl.VERTEX_SHADER},
		{geometrySrc, gl.GEOMETRY_SHADER},
		{fragmentSrc, gl.FRAGMENT_SHADER},
	}

	program := gl.CreateProgram()
	var attached []uint32
	defer func() {
		for _, sh := range attached {
			gl.DeleteShader(sh)
		}
	}()

	for _, st := range stages {
		if st.src == "" {
			continue
		}
		sh, err := compileShader(st.src, st.kind)
		if err != nil {
			gl.DeleteProgram(program)
			return 0, err
		}
		gl.AttachShader(program, sh)
		attached = append(attached, sh)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile %s shader: %v", stageName(shaderType), log)
	}
	return shader, nil
}

func stageName(kind uint32) string {
	switch kind {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.GEOMETRY_SHADER:
		return "geometry"
	default:
		return "fragment"
	}
}
