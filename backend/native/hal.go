//go:build !nogpu

package native

import (
	"time"

	"github.com/gogpu/wgpu/hal"
)

// halDevice is the part of hal.Device this package uses.
type halDevice interface {
	CreateFence() (hal.Fence, error)
	DestroyFence(fence hal.Fence)
	Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error)

	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
	CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error)
	DestroyTextureView(view hal.TextureView)
	CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error)
	DestroyBuffer(buffer hal.Buffer)

	CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error)
	DestroyShaderModule(module hal.ShaderModule)
	CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error)
	DestroyBindGroupLayout(layout hal.BindGroupLayout)
	CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error)
	DestroyBindGroup(group hal.BindGroup)
	CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error)
	DestroyPipelineLayout(layout hal.PipelineLayout)
	CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error)
	DestroyRenderPipeline(pipeline hal.RenderPipeline)

	CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error)
	freeCommandBuffer(buffer hal.CommandBuffer)
}

// halQueue is the part of hal.Queue this package uses.
type halQueue interface {
	Submit(buffers []hal.CommandBuffer, fence hal.Fence, value uint64) error
	writeBuffer(buffer hal.Buffer, data []byte)
	readBuffer(buffer hal.Buffer, data []byte) error
}

type deviceAdapter struct {
	hal.Device
}

func (d deviceAdapter) freeCommandBuffer(buffer hal.CommandBuffer) {
	d.FreeCommandBuffer(buffer)
}

type queueAdapter struct {
	hal.Queue
}

func (q queueAdapter) writeBuffer(buffer hal.Buffer, data []byte) {
	q.WriteBuffer(buffer, 0, data)
}

func (q queueAdapter) readBuffer(buffer hal.Buffer, data []byte) error {
	return q.ReadBuffer(buffer, 0, data)
}
