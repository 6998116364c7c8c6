// Package camera provides the perspective camera that follows the window
// size.
package camera

import "github.com/chewxy/math32"

// Camera is a perspective camera looking at the world origin with +Y up.
type Camera struct {
	fovY     float32
	aspect   float32
	near     float32
	far      float32
	position Vec3
}

// New creates a camera for a width x height viewport with the vertical
// field of view given in degrees.
func New(width, height uint32, fovYDeg, near, far float32) *Camera {
	c := &Camera{
		fovY: fovYDeg * math32.Pi / 180,
		near: near,
		far:  far,
	}
	c.OnResize(width, height)
	return c
}

// OnResize updates the aspect ratio. Zero dimensions are treated as 1.
func (c *Camera) OnResize(width, height uint32) {
	c.aspect = float32(max(1, width)) / float32(max(1, height))
}

// Aspect returns the viewport aspect ratio.
func (c *Camera) Aspect() float32 { return c.aspect }

// FovY returns the vertical field of view in radians.
func (c *Camera) FovY() float32 { return c.fovY }

// SetPosition moves the eye.
func (c *Camera) SetPosition(p Vec3) { c.position = p }

// Position returns the eye position.
func (c *Camera) Position() Vec3 { return c.position }

// ProjectionView returns projection * view.
func (c *Camera) ProjectionView() Mat4 {
	projection := Perspective(c.fovY, c.aspect, c.near, c.far)
	view := LookAt(c.position, Vec3{}, Vec3{Y: 1})
	return projection.Mul(view)
}
