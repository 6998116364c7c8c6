//go:build !nogpu

// Package native runs the frame loop on a wgpu HAL device owned by the
// host application.
//
// The host passes its device as a render.DeviceHandle that also
// implements render.HALProvider. Fences wrap hal.Fence and are signaled by
// empty submissions on the HAL queue; a goroutine per waited fence polls
// hal.Device.Wait and delivers completion notifications. Back buffers are
// an offscreen ring of textures handed to a Presenter, or read back into
// the surface when it can take a blit.
//
// Build with the nogpu tag to leave the package out.
package native
