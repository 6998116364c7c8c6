//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	ddn "github.com/delivron/3dandelion"
	"github.com/delivron/3dandelion/mesh"
	"github.com/delivron/3dandelion/render"
	"github.com/delivron/3dandelion/shader"
)

// uniformSize is the size of the MVP uniform: one column-major mat4x4<f32>.
const uniformSize = 64

// slotResources is the per-back-buffer state of the cube renderer. The
// uniform is rewritten only after the slot's previous frame retired.
type slotResources struct {
	uniform   hal.Buffer
	bindGroup hal.BindGroup
}

// CubeRenderer draws the frame's mesh with the WGSL cube pipeline. Depth
// is resolved by back-face culling, which is exact for convex meshes.
// Overlay text is not drawn on the GPU.
type CubeRenderer struct {
	device *Device
	format gputypes.TextureFormat

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	mesh        *mesh.Mesh
	vertices    hal.Buffer
	vertexCount uint32

	slots map[uint32]*slotResources
}

// NewCubeRenderer compiles the cube shader and creates the pipeline for
// targets of the given format.
func NewCubeRenderer(device *Device, format gputypes.TextureFormat) (*CubeRenderer, error) {
	if !supportedFormat(format) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	r := &CubeRenderer{device: device, format: format, slots: make(map[uint32]*slotResources)}
	if err := r.createPipeline(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// Record encodes one render pass that clears the target and draws the mesh.
func (r *CubeRenderer) Record(f *render.Frame) ([]ddn.CommandList, error) {
	target, err := TargetFromResource(f.Target)
	if err != nil {
		return nil, err
	}
	slot, err := r.slot(f.Index)
	if err != nil {
		return nil, err
	}
	if f.Mesh != nil {
		if err := r.upload(f.Mesh); err != nil {
			return nil, err
		}
		r.device.queue.writeBuffer(slot.uniform, f.MVP().Bytes())
	}

	cl, err := r.device.NewCommandList(fmt.Sprintf("cube/%d", f.Index))
	if err != nil {
		return nil, err
	}
	rp := cl.Encoder().BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "cube_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: f.Clear,
		}},
	})
	if f.Mesh != nil && r.vertexCount > 0 {
		rp.SetPipeline(r.pipeline)
		rp.SetBindGroup(0, slot.bindGroup, nil)
		rp.SetVertexBuffer(0, r.vertices, 0)
		rp.Draw(r.vertexCount, 1, 0, 0)
	}
	rp.End()
	if err := cl.Close(); err != nil {
		return nil, err
	}
	return []ddn.CommandList{cl}, nil
}

// Retire has nothing to recycle: lists are encoded fresh each frame and
// the queue frees their command buffers when the submission retires.
func (r *CubeRenderer) Retire(uint32) {}

// Close releases every GPU object in reverse creation order.
func (r *CubeRenderer) Close() {
	gpu := r.device.gpu
	for index, s := range r.slots {
		if s.bindGroup != nil {
			gpu.DestroyBindGroup(s.bindGroup)
		}
		if s.uniform != nil {
			gpu.DestroyBuffer(s.uniform)
		}
		delete(r.slots, index)
	}
	if r.vertices != nil {
		gpu.DestroyBuffer(r.vertices)
		r.vertices = nil
		r.mesh = nil
	}
	if r.pipeline != nil {
		gpu.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		gpu.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.uniformLayout != nil {
		gpu.DestroyBindGroupLayout(r.uniformLayout)
		r.uniformLayout = nil
	}
	if r.shader != nil {
		gpu.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

func (r *CubeRenderer) createPipeline() error {
	gpu := r.device.gpu
	spirv, err := shader.CompileWGSL(shader.Cube)
	if err != nil {
		return err
	}
	r.shader, err = gpu.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "cube_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("native: create cube shader: %w", err)
	}

	r.uniformLayout, err = gpu.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "cube_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	})
	if err != nil {
		return fmt.Errorf("native: create cube uniform layout: %w", err)
	}

	r.pipeLayout, err = gpu.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "cube_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("native: create cube pipeline layout: %w", err)
	}

	r.pipeline, err = gpu.CreateRenderPipeline(cubePipelineDescriptor(r.shader, r.pipeLayout, r.format))
	if err != nil {
		return fmt.Errorf("native: create cube pipeline: %w", err)
	}
	return nil
}

func cubePipelineDescriptor(module hal.ShaderModule, layout hal.PipelineLayout, format gputypes.TextureFormat) *hal.RenderPipelineDescriptor {
	return &hal.RenderPipelineDescriptor{
		Label:  "cube_pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    cubeVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
}

func cubeVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: mesh.VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
			{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1}, // color
		},
	}}
}

// upload streams m into the vertex buffer unless it is already resident.
func (r *CubeRenderer) upload(m *mesh.Mesh) error {
	if r.mesh == m && r.vertices != nil {
		return nil
	}
	gpu := r.device.gpu
	if r.vertices != nil {
		gpu.DestroyBuffer(r.vertices)
		r.vertices = nil
	}
	data := m.TriangleListBytes()
	if len(data) == 0 {
		r.mesh, r.vertexCount = m, 0
		return nil
	}
	buf, err := gpu.CreateBuffer(&hal.BufferDescriptor{
		Label: "cube_vertices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create vertex buffer: %w", err)
	}
	r.device.queue.writeBuffer(buf, data)
	r.mesh = m
	r.vertices = buf
	r.vertexCount = uint32(m.IndexCount()) //nolint:gosec // uint16 indices
	return nil
}

// slot returns the uniform and bind group for back buffer index.
func (r *CubeRenderer) slot(index uint32) (*slotResources, error) {
	if s := r.slots[index]; s != nil {
		return s, nil
	}
	gpu := r.device.gpu
	uniform, err := gpu.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("cube_uniform_%d", index),
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create uniform buffer: %w", err)
	}
	bindGroup, err := gpu.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  fmt.Sprintf("cube_bind_%d", index),
		Layout: r.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniform.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
		},
	})
	if err != nil {
		gpu.DestroyBuffer(uniform)
		return nil, fmt.Errorf("native: create bind group: %w", err)
	}
	s := &slotResources{uniform: uniform, bindGroup: bindGroup}
	r.slots[index] = s
	return s, nil
}

var _ render.Renderer = (*CubeRenderer)(nil)
