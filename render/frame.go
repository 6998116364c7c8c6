// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gputypes"

	ddn "github.com/delivron/3dandelion"
	"github.com/delivron/3dandelion/camera"
	"github.com/delivron/3dandelion/mesh"
)

// Frame describes one frame to record: where it renders and what it
// draws. A Frame is built by the frame loop after the back buffer for
// Index has been handed back by the swap chain, so Target is free to be
// written by the recorded lists.
type Frame struct {
	// Number counts frames from 1.
	Number uint64

	// Index is the back buffer slot being rendered.
	Index uint32

	// Target is the back buffer resource in slot Index.
	Target ddn.Resource

	// Width and Height are the back buffer dimensions.
	Width, Height uint32

	// Format is the back buffer pixel format.
	Format gputypes.TextureFormat

	// Clear is the color the target is cleared to.
	Clear gputypes.Color

	// ProjectionView is the camera transform.
	ProjectionView camera.Mat4

	// Model places Mesh in the world.
	Model camera.Mat4

	// Mesh is drawn when non-nil.
	Mesh *mesh.Mesh

	// Overlay is a line of text drawn over the scene, if any.
	Overlay string
}

// MVP returns ProjectionView * Model.
func (f *Frame) MVP() camera.Mat4 {
	return f.ProjectionView.Mul(f.Model)
}
