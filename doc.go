// Package ddn is the GPU/CPU synchronization core of the 3Dandelion frame
// loop.
//
// Three types cooperate to keep the CPU from racing the device:
//
//   - Fence: a monotonic completion counter. Signal returns a ticket,
//     Wait blocks until the device has reached it.
//   - CommandQueue: collects recorded command lists, submits them in order
//     and can drain itself through its own Fence.
//   - SwapChain: cycles a ring of back buffers, recording a ticket for each
//     buffer it vacates and waiting on it before the buffer is reused.
//
// Device, queue and presentation handles are supplied by a backend through
// the Device, HardwareQueue, Factory and PresentEngine interfaces. See
// backend/soft for a software device and backend/native for gogpu/wgpu.
//
// # Frame loop
//
//	queue.Clear()
//	queue.Add(list)            // recorded against swapChain.CurrentBackBuffer()
//	if err := queue.Execute(); err != nil { ... }
//	if err := swapChain.Present(); err != nil { ... }
//
// On resize call swapChain.Resize, which flushes the queue before touching
// any buffer. At shutdown call queue.Flush before releasing resources.
//
// # Errors
//
// Precondition violations at construction wrap ErrInvalidArgument. Device
// failures are returned wrapped and are not retried; the caller is expected
// to abort.
//
// # Thread Safety
//
// CommandQueue.Add and Fence.Signal are safe for concurrent use. Everything
// else is driven by a single render goroutine.
package ddn
