package ddn

import "github.com/gogpu/gputypes"

// SwapChainOption configures a SwapChain during creation.
//
// Example:
//
//	sc, err := ddn.NewSwapChain(factory, queue, window, 3,
//	    ddn.WithFormat(gputypes.TextureFormatBGRA8Unorm),
//	    ddn.WithSyncInterval(1),
//	)
type SwapChainOption func(*swapChainOptions)

// swapChainOptions holds optional configuration for SwapChain creation.
type swapChainOptions struct {
	format       gputypes.TextureFormat
	syncInterval uint32
	allowTearing bool
}

// defaultSwapChainOptions returns the default swap chain options:
// RGBA8 buffers, no vertical sync, tearing used when the platform has it.
func defaultSwapChainOptions() swapChainOptions {
	return swapChainOptions{
		format:       gputypes.TextureFormatRGBA8Unorm,
		syncInterval: 0,
		allowTearing: true,
	}
}

// WithFormat sets the back buffer pixel format.
// gputypes.TextureFormatUndefined keeps the default.
func WithFormat(format gputypes.TextureFormat) SwapChainOption {
	return func(o *swapChainOptions) {
		if format != gputypes.TextureFormatUndefined {
			o.format = format
		}
	}
}

// WithSyncInterval sets the number of vertical blanks each present waits
// for. Tearing is only requested with interval 0.
func WithSyncInterval(interval uint32) SwapChainOption {
	return func(o *swapChainOptions) {
		o.syncInterval = interval
	}
}

// WithTearing controls whether tearing is used when the platform supports
// it. Passing false disables it regardless of the probe result.
func WithTearing(allow bool) SwapChainOption {
	return func(o *swapChainOptions) {
		o.allowTearing = allow
	}
}
