// Package backend provides a pluggable device backend abstraction.
//
// A backend bundles the three things the frame loop needs from a device:
// a ddn.Device for queues and fences, a ddn.Factory for present engines,
// and a render.Renderer for recording frames.
//
// # Backend Registration
//
// The software backend registers itself on import:
//
//	import _ "github.com/delivron/3dandelion/backend/soft"
//
// The native backend needs a device from the host and is registered
// explicitly:
//
//	native.Register(provider)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Get the default (best available) backend
//	b := backend.Default()
//
//	// Or request a specific backend
//	b := backend.Get("software")
//
// Open combines lookup and Init:
//
//	b, err := backend.Open(cfg.Backend)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
// # Available Backends
//
// - "software": goroutine-driven CPU device drawing with gg (always available)
// - "native": gogpu/wgpu HAL device supplied by the host
package backend
