//go:build !nogpu

package native

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment texture-to-buffer copies require.
const copyPitchAlignment = 256

// readbackTimeout bounds the wait for one frame's copy.
const readbackTimeout = 5 * time.Second

// Canvas receives frames read back from the GPU. window.Headless
// implements it.
type Canvas interface {
	Blit(frame image.Image)
}

// Readback is a Presenter that copies each presented target to a staging
// buffer, waits for the copy and blits the pixels to a canvas.
type Readback struct {
	device *Device
	canvas Canvas

	mu      sync.Mutex
	fence   hal.Fence
	ticket  uint64
	staging hal.Buffer
	size    uint64
}

// NewReadback returns a presenter delivering frames to canvas.
func NewReadback(device *Device, canvas Canvas) *Readback {
	return &Readback{device: device, canvas: canvas}
}

// PresentTarget reads target back and blits it. It blocks until the copy
// has completed on the GPU.
func (r *Readback) PresentTarget(target *Target, _ uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := target.Width, target.Height
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	if err := r.ensure(uint64(alignedBytesPerRow) * uint64(h)); err != nil {
		return err
	}

	gpu := r.device.gpu
	encoder, err := gpu.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("readback"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(target.Texture, r.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: target.Texture, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer gpu.freeCommandBuffer(cmdBuf)

	r.ticket++
	if err := r.device.queue.Submit([]hal.CommandBuffer{cmdBuf}, r.fence, r.ticket); err != nil {
		return fmt.Errorf("submit readback: %w", err)
	}
	ok, err := gpu.Wait(r.fence, r.ticket, readbackTimeout)
	if err != nil {
		return fmt.Errorf("wait for readback: %w", err)
	}
	if !ok {
		return ErrGPUTimeout
	}

	data := make([]byte, r.size)
	if err := r.device.queue.readBuffer(r.staging, data); err != nil {
		return fmt.Errorf("read staging buffer: %w", err)
	}
	r.canvas.Blit(toImage(data, int(w), int(h), int(alignedBytesPerRow), isBGRA(target.Format)))
	return nil
}

// Close releases the staging buffer and fence.
func (r *Readback) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staging != nil {
		r.device.gpu.DestroyBuffer(r.staging)
		r.staging = nil
		r.size = 0
	}
	if r.fence != nil {
		r.device.gpu.DestroyFence(r.fence)
		r.fence = nil
	}
}

func (r *Readback) ensure(size uint64) error {
	gpu := r.device.gpu
	if r.fence == nil {
		fence, err := gpu.CreateFence()
		if err != nil {
			return fmt.Errorf("create readback fence: %w", err)
		}
		r.fence = fence
	}
	if r.staging != nil && r.size == size {
		return nil
	}
	if r.staging != nil {
		gpu.DestroyBuffer(r.staging)
		r.staging = nil
	}
	staging, err := gpu.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	r.staging = staging
	r.size = size
	return nil
}

func isBGRA(format gputypes.TextureFormat) bool {
	return format == gputypes.TextureFormatBGRA8Unorm || format == gputypes.TextureFormatBGRA8UnormSrgb
}

// toImage strips row padding from a readback and swaps BGRA to RGBA when
// needed.
func toImage(data []byte, w, h, pitch int, bgra bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		row := data[y*pitch : y*pitch+w*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+w*4]
		copy(dst, row)
		if bgra {
			for x := 0; x < len(dst); x += 4 {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}
	return img
}
