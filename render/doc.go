// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines how frames are recorded into command lists.
//
// # Core Types
//
//   - DeviceHandle: GPU device access handed in by the host application
//   - Frame: one frame's target, camera and mesh
//   - Renderer: records the command lists for a Frame
//   - Stack: layers of renderers recorded concurrently
//
// # Usage
//
//	stack := render.NewStack(sceneRenderer, overlayRenderer)
//	lists, err := stack.Record(&render.Frame{
//	    Index:  sc.CurrentBackBufferIndex(),
//	    Target: sc.CurrentBackBuffer(),
//	    Width:  sc.Width(),
//	    Height: sc.Height(),
//	})
//	if err != nil {
//	    return err
//	}
//	for _, l := range lists {
//	    queue.Add(l)
//	}
//
// Backends in backend/soft and backend/native provide the concrete
// renderers.
package render
