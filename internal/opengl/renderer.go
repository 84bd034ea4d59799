package opengl

import (
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"gallery-engine/core"
	"gallery-engine/math"
	"gallery-engine/scene"
)

// GPUMesh holds the OpenGL buffer objects for an uploaded mesh.
type GPUMesh struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
	HasIndices bool
}

// Renderer is the OpenGL rendering backend.
type Renderer struct {
	program uint32

	mvpLoc   int32
	modelLoc int32

	lightDirLoc       int32
	lightColorLoc     int32
	lightIntensityLoc int32
	ambientColorLoc   int32
	cameraPosLoc      int32

	matAlbedoLoc    int32
	matMetallicLoc  int32
	matRoughnessLoc int32
	unlitLoc        int32
	albedoTexLoc    int32
	hasTextureLoc   int32

	viewportW int32
	viewportH int32

	gpuMeshes map[*GPUMesh]struct{}
}

const vertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec4 inColor;

uniform mat4 mvp;
uniform mat4 model;

out vec4 fragColor;
out vec3 fragNormal;
out vec2 fragUV;
out vec3 fragWorldPos;

void main() {
    vec4 worldPos = model * vec4(inPosition, 1.0);
    gl_Position   = mvp * vec4(inPosition, 1.0);
    fragColor     = inColor;
    fragNormal    = mat3(model) * inNormal;
    fragUV        = inUV;
    fragWorldPos  = worldPos.xyz;
}
` + "\x00"

// fragment shader: one directional key light plus ambient, Blinn-Phong with
// the highlight width taken from roughness. Unlit materials skip lighting.
const fragSrc = `
#version 410 core
in vec4 fragColor;
in vec3 fragNormal;
in vec2 fragUV;
in vec3 fragWorldPos;

uniform vec3 lightDir;
uniform vec3 lightColor;
uniform float lightIntensity;
uniform vec3 ambientColor;
uniform vec3 cameraPos;

uniform vec3 matAlbedo;
uniform float matMetallic;
uniform float matRoughness;
uniform bool unlit;

uniform sampler2D albedoTex;
uniform bool hasTexture;

out vec4 outColor;

void main() {
    vec4 base = vec4(matAlbedo, 1.0) * fragColor;
    if (hasTexture) {
        base *= texture(albedoTex, fragUV);
    }
    if (unlit) {
        outColor = base;
        return;
    }

    vec3 N = normalize(fragNormal);
    vec3 L = normalize(-lightDir);
    vec3 V = normalize(cameraPos - fragWorldPos);
    vec3 H = normalize(L + V);

    float diff = max(dot(N, L), 0.0);
    float shininess = mix(256.0, 4.0, clamp(matRoughness, 0.0, 1.0));
    float spec = pow(max(dot(N, H), 0.0), shininess) * (1.0 - matRoughness);
    vec3 specColor = mix(vec3(0.04), base.rgb, matMetallic);

    vec3 lit = ambientColor * base.rgb
             + lightColor * lightIntensity * (diff * base.rgb * (1.0 - matMetallic) + spec * specColor);
    outColor = vec4(lit, base.a);
}
` + "\x00"

// NewRenderer initialises GL function pointers and compiles the shader.
// The GL context must be current on the calling thread.
func NewRenderer() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	slog.Info("opengl ready", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	prog, err := newProgram(vertSrc, fragSrc)
	if err != nil {
		return nil, fmt.Errorf("main shader compile: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	r := &Renderer{
		program: prog,

		mvpLoc:   uniform(prog, "mvp"),
		modelLoc: uniform(prog, "model"),

		lightDirLoc:       uniform(prog, "lightDir"),
		lightColorLoc:     uniform(prog, "lightColor"),
		lightIntensityLoc: uniform(prog, "lightIntensity"),
		ambientColorLoc:   uniform(prog, "ambientColor"),
		cameraPosLoc:      uniform(prog, "cameraPos"),

		matAlbedoLoc:    uniform(prog, "matAlbedo"),
		matMetallicLoc:  uniform(prog, "matMetallic"),
		matRoughnessLoc: uniform(prog, "matRoughness"),
		unlitLoc:        uniform(prog, "unlit"),
		albedoTexLoc:    uniform(prog, "albedoTex"),
		hasTextureLoc:   uniform(prog, "hasTexture"),

		gpuMeshes: make(map[*GPUMesh]struct{}),
	}

	gl.UseProgram(prog)
	gl.Uniform1i(r.albedoTexLoc, 0)
	return r, nil
}

func uniform(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}

// SetViewport resizes the OpenGL viewport.
func (r *Renderer) SetViewport(width, height int) {
	r.viewportW = int32(width)
	r.viewportH = int32(height)
	gl.Viewport(0, 0, int32(width), int32(height))
}

// BeginFrame clears the target and sets the per-frame lighting uniforms.
func (r *Renderer) BeginFrame(sky core.Color, sun scene.DirectionalLight, ambient core.Color, camPos math.Vec3) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ClearColor(sky.R, sky.G, sky.B, sky.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.program)
	gl.Uniform3f(r.ambientColorLoc, ambient.R, ambient.G, ambient.B)
	gl.Uniform3f(r.cameraPosLoc, camPos.X, camPos.Y, camPos.Z)

	dir := sun.Direction.Normalize()
	gl.Uniform3f(r.lightDirLoc, dir.X, dir.Y, dir.Z)
	gl.Uniform3f(r.lightColorLoc, sun.Color.R, sun.Color.G, sun.Color.B)
	gl.Uniform1f(r.lightIntensityLoc, sun.Intensity)
}

// DrawMesh draws a mesh with the given MVP and model matrices.
// Textures referenced by the material are uploaded on first use.
func (r *Renderer) DrawMesh(mesh *scene.Mesh, mvp, model math.Mat4) {
	gpu := r.ensureUploaded(mesh)
	if gpu == nil {
		return
	}

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.mvpLoc, 1, false, (*float32)(unsafe.Pointer(&mvp[0][0])))
	gl.UniformMatrix4fv(r.modelLoc, 1, false, (*float32)(unsafe.Pointer(&model[0][0])))

	mat := mesh.Material
	if mat == nil {
		mat = scene.DefaultMaterial()
	}
	r.applyMaterial(mat)

	gl.BindVertexArray(gpu.VAO)
	if gpu.HasIndices {
		gl.DrawElements(gl.TRIANGLES, gpu.IndexCount, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(mesh.Vertices)))
	}
	gl.BindVertexArray(0)
}

func (r *Renderer) applyMaterial(mat *scene.Material) {
	gl.Uniform3f(r.matAlbedoLoc, mat.Albedo.R, mat.Albedo.G, mat.Albedo.B)
	gl.Uniform1f(r.matMetallicLoc, mat.Metallic)
	gl.Uniform1f(r.matRoughnessLoc, mat.Roughness)
	gl.Uniform1i(r.unlitLoc, boolToInt(mat.Unlit))

	tex := mat.AlbedoTexture
	if tex != nil && tex.GLID == 0 && len(tex.Pixels) > 0 {
		if err := UploadTexture(tex); err != nil {
			slog.Warn("texture upload failed", "texture", tex.Name, "err", err)
		}
	}
	if tex != nil && tex.GLID != 0 {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
		gl.Uniform1i(r.hasTextureLoc, 1)
	} else {
		gl.Uniform1i(r.hasTextureLoc, 0)
	}
}

// ReleaseMesh frees the GPU buffers of a mesh. Shallow copies sharing the
// buffers lose them too.
func (r *Renderer) ReleaseMesh(mesh *scene.Mesh) {
	gpu, ok := mesh.GPUData.(*GPUMesh)
	if !ok {
		return
	}
	r.release(gpu)
	mesh.GPUData = nil
}

func (r *Renderer) release(gpu *GPUMesh) {
	if _, ok := r.gpuMeshes[gpu]; !ok {
		return
	}
	gl.DeleteVertexArrays(1, &gpu.VAO)
	gl.DeleteBuffers(1, &gpu.VBO)
	if gpu.HasIndices {
		gl.DeleteBuffers(1, &gpu.EBO)
	}
	delete(r.gpuMeshes, gpu)
}

// Destroy releases all GPU resources.
func (r *Renderer) Destroy() {
	for gpu := range r.gpuMeshes {
		r.release(gpu)
	}
	gl.DeleteProgram(r.program)
}

// ensureUploaded returns the mesh's buffers, creating them on first draw.
// The handle lives on the mesh so shallow copies share one upload.
func (r *Renderer) ensureUploaded(mesh *scene.Mesh) *GPUMesh {
	if gpu, ok := mesh.GPUData.(*GPUMesh); ok {
		if _, live := r.gpuMeshes[gpu]; live {
			return gpu
		}
	}
	if len(mesh.Vertices) == 0 {
		return nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gpu := &GPUMesh{
		IndexCount: int32(len(mesh.Indices)),
		HasIndices: len(mesh.Indices) > 0,
	}

	gl.GenVertexArrays(1, &gpu.VAO)
	gl.GenBuffers(1, &gpu.VBO)
	gl.BindVertexArray(gpu.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, gpu.VBO)
	gl.BufferData(gl.ARRAY_BUFFER,
		len(mesh.Vertices)*int(stride),
		gl.Ptr(mesh.Vertices),
		gl.STATIC_DRAW)

	var v core.Vertex
	posOff := int(unsafe.Offsetof(v.Position))
	normOff := int(unsafe.Offsetof(v.Normal))
	uvOff := int(unsafe.Offsetof(v.UV))
	colorOff := int(unsafe.Offsetof(v.Color))

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(posOff))

	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(normOff))

	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, gl.PtrOffset(uvOff))

	gl.EnableVertexAttribArray(3)
	gl.VertexAttribPointer(3, 4, gl.FLOAT, false, stride, gl.PtrOffset(colorOff))

	if gpu.HasIndices {
		gl.GenBuffers(1, &gpu.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gpu.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER,
			len(mesh.Indices)*4,
			gl.Ptr(mesh.Indices),
			gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)

	r.gpuMeshes[gpu] = struct{}{}
	mesh.GPUData = gpu
	return gpu
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("link failed: %v", log)
	}

	gl.DeleteShader(vert)
	gl.DeleteShader(frag)
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
