//go:build !nogpu

package native

import (
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// =============================================================================
// Mock Types for Testing
// =============================================================================

// The mock resources embed their HAL interface so they satisfy it; the
// package never calls methods on them directly.

type mockFence struct {
	hal.Fence
	value uint64 // guarded by mockGPU.mu
}

type mockTexture struct {
	hal.Texture
	width, height uint32
	format        gputypes.TextureFormat
}

type mockView struct {
	hal.TextureView
	texture hal.Texture
}

type mockBuffer struct {
	hal.Buffer
	size uint64
}

type mockCommandBuffer struct {
	hal.CommandBuffer
	id int
}

type mockShader struct{ hal.ShaderModule }

type mockBindGroupLayout struct{ hal.BindGroupLayout }

type mockPipelineLayout struct{ hal.PipelineLayout }

type mockPipeline struct{ hal.RenderPipeline }

// mockEncoder records nothing. Only the encoding lifecycle is overridden;
// render and copy commands come from the embedded nil interface.
type mockEncoder struct {
	hal.CommandEncoder
	gpu      *mockGPU
	label    string
	begun    bool
	beginErr error
}

func (e *mockEncoder) BeginEncoding(label string) error {
	if e.beginErr != nil {
		return e.beginErr
	}
	e.label = label
	e.begun = true
	return nil
}

func (e *mockEncoder) EndEncoding() (hal.CommandBuffer, error) {
	e.gpu.mu.Lock()
	defer e.gpu.mu.Unlock()
	e.gpu.encoded++
	return &mockCommandBuffer{id: e.gpu.encoded}, nil
}

// mockGPU is a test double for the HAL device. Fence values advance when
// mockQueue runs submissions. Pipeline methods come from the embedded nil
// hal.Device and must not be called.
type mockGPU struct {
	hal.Device

	mu sync.Mutex

	fencesCreated     int
	fencesDestroyed   int
	texturesCreated   int
	texturesDestroyed int
	viewsCreated      int
	viewsDestroyed    int
	buffersCreated    int
	buffersDestroyed  int
	freed             []hal.CommandBuffer
	encoded           int
	pipelineCreated   int
	pipelineDestroyed int
	lastPipeline      *hal.RenderPipelineDescriptor

	// failTextureAt makes the n-th CreateTexture call fail (1-based).
	failTextureAt int
	textureErr    error
	waitErr       error
	beginErr      error
}

func (g *mockGPU) CreateFence() (hal.Fence, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fencesCreated++
	return &mockFence{}, nil
}

func (g *mockGPU) DestroyFence(hal.Fence) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fencesDestroyed++
}

// Wait polls the fence value until it reaches value or timeout expires.
func (g *mockGPU) Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error) {
	f := fence.(*mockFence)
	deadline := time.Now().Add(timeout)
	g.mu.Lock()
	defer g.mu.Unlock()
	for f.value < value {
		if g.waitErr != nil {
			return false, g.waitErr
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		g.mu.Unlock()
		time.Sleep(min(remaining, time.Millisecond))
		g.mu.Lock()
	}
	return true, nil
}

func (g *mockGPU) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failTextureAt > 0 && g.texturesCreated+1 == g.failTextureAt {
		return nil, g.textureErr
	}
	g.texturesCreated++
	return &mockTexture{width: desc.Size.Width, height: desc.Size.Height, format: desc.Format}, nil
}

func (g *mockGPU) DestroyTexture(hal.Texture) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texturesDestroyed++
}

func (g *mockGPU) CreateTextureView(texture hal.Texture, _ *hal.TextureViewDescriptor) (hal.TextureView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.viewsCreated++
	return &mockView{texture: texture}, nil
}

func (g *mockGPU) DestroyTextureView(hal.TextureView) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.viewsDestroyed++
}

func (g *mockGPU) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buffersCreated++
	return &mockBuffer{size: desc.Size}, nil
}

func (g *mockGPU) DestroyBuffer(hal.Buffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buffersDestroyed++
}

// Pipeline objects share one pair of counters.

func (g *mockGPU) created() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pipelineCreated++
}

func (g *mockGPU) destroyed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pipelineDestroyed++
}

func (g *mockGPU) CreateShaderModule(*hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	g.created()
	return &mockShader{}, nil
}

func (g *mockGPU) DestroyShaderModule(hal.ShaderModule) { g.destroyed() }

func (g *mockGPU) CreateBindGroupLayout(*hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	g.created()
	return &mockBindGroupLayout{}, nil
}

func (g *mockGPU) DestroyBindGroupLayout(hal.BindGroupLayout) { g.destroyed() }

func (g *mockGPU) CreatePipelineLayout(*hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	g.created()
	return &mockPipelineLayout{}, nil
}

func (g *mockGPU) DestroyPipelineLayout(hal.PipelineLayout) { g.destroyed() }

func (g *mockGPU) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	g.created()
	g.mu.Lock()
	g.lastPipeline = desc
	g.mu.Unlock()
	return &mockPipeline{}, nil
}

func (g *mockGPU) DestroyRenderPipeline(hal.RenderPipeline) { g.destroyed() }

func (g *mockGPU) CreateCommandEncoder(*hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &mockEncoder{gpu: g, beginErr: g.beginErr}, nil
}

func (g *mockGPU) freeCommandBuffer(buffer hal.CommandBuffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.freed = append(g.freed, buffer)
}

// counts returns a snapshot of a counter under the lock.
func (g *mockGPU) counts(read func(*mockGPU) int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return read(g)
}

type mockSubmit struct {
	buffers []hal.CommandBuffer
	fence   hal.Fence
	value   uint64
}

// mockQueue runs submissions at once, or holds them for complete when
// manual is set.
type mockQueue struct {
	gpu    *mockGPU
	manual bool

	// guarded by gpu.mu
	pending   []mockSubmit
	submits   int
	executed  int
	submitErr error
	writes    int
	readback  []byte
}

func (q *mockQueue) Submit(buffers []hal.CommandBuffer, fence hal.Fence, value uint64) error {
	q.gpu.mu.Lock()
	defer q.gpu.mu.Unlock()
	if q.submitErr != nil {
		return q.submitErr
	}
	q.submits++
	s := mockSubmit{buffers: buffers, fence: fence, value: value}
	if q.manual {
		q.pending = append(q.pending, s)
		return nil
	}
	q.runLocked(s)
	return nil
}

func (q *mockQueue) runLocked(s mockSubmit) {
	q.executed += len(s.buffers)
	if f, ok := s.fence.(*mockFence); ok && s.value > f.value {
		f.value = s.value
	}
}

// complete runs the first n held submissions.
func (q *mockQueue) complete(n int) {
	q.gpu.mu.Lock()
	defer q.gpu.mu.Unlock()
	n = min(n, len(q.pending))
	for _, s := range q.pending[:n] {
		q.runLocked(s)
	}
	q.pending = q.pending[n:]
}

func (q *mockQueue) completeAll() { q.complete(1 << 30) }

func (q *mockQueue) submitCount() int {
	q.gpu.mu.Lock()
	defer q.gpu.mu.Unlock()
	return q.submits
}

func (q *mockQueue) writeBuffer(hal.Buffer, []byte) {
	q.gpu.mu.Lock()
	defer q.gpu.mu.Unlock()
	q.writes++
}

func (q *mockQueue) readBuffer(_ hal.Buffer, data []byte) error {
	q.gpu.mu.Lock()
	defer q.gpu.mu.Unlock()
	copy(data, q.readback)
	return nil
}

// newTestDevice returns a device over mocks. The device is closed at the
// end of the test after any held work has completed.
func newTestDevice(t *testing.T, manual bool) (*Device, *mockGPU, *mockQueue) {
	t.Helper()
	gpu := &mockGPU{}
	queue := &mockQueue{gpu: gpu, manual: manual}
	d := newDevice(gpu, queue)
	t.Cleanup(func() {
		queue.completeAll()
		d.Close()
	})
	return d, gpu, queue
}

// closedList returns a closed list holding a fresh mock command buffer.
func closedList(label string, id int) *CommandList {
	return &CommandList{label: label, buffer: &mockCommandBuffer{id: id}, closed: true}
}

// eventually polls cond until it holds or two seconds pass.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
