// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// The frame loop RECEIVES the device from the host, it does not create
// one. A host that owns a wgpu device (for example a gogpu.App) passes it
// in as a DeviceHandle and the native backend builds its queues, fences
// and back buffers on that device.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, so any
// gpucontext provider can be used directly.
type DeviceHandle = gpucontext.DeviceProvider

// HALProvider is implemented by device handles that expose the HAL
// objects behind the gpucontext interfaces. HalDevice must return a
// hal.Device and HalQueue a hal.Queue.
type HALProvider interface {
	HalDevice() any
	HalQueue() any
}

// NullDeviceHandle is a DeviceHandle with no GPU behind it. The software
// backend reports it as its device handle.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
