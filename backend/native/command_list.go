//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// CommandList wraps a HAL command encoder while recording and the command
// buffer it produced once closed. A list is submitted at most once; the
// queue frees its command buffer when the submission retires.
type CommandList struct {
	label   string
	encoder hal.CommandEncoder
	buffer  hal.CommandBuffer
	closed  bool
}

// NewCommandList begins encoding a new list.
func (d *Device) NewCommandList(label string) (*CommandList, error) {
	encoder, err := d.gpu.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder %q: %w", label, err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("native: begin encoding %q: %w", label, err)
	}
	return &CommandList{label: label, encoder: encoder}, nil
}

// Label returns the debug label.
func (l *CommandList) Label() string { return l.label }

// Closed reports whether recording has finished.
func (l *CommandList) Closed() bool { return l.closed }

// Encoder returns the HAL encoder to record into, or nil once closed.
func (l *CommandList) Encoder() hal.CommandEncoder { return l.encoder }

// Close finishes encoding.
func (l *CommandList) Close() error {
	if l.closed {
		return fmt.Errorf("%w: %q", ErrListClosed, l.label)
	}
	buffer, err := l.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding %q: %w", l.label, err)
	}
	l.buffer = buffer
	l.encoder = nil
	l.closed = true
	return nil
}

// Discard abandons a list that is still recording.
func (l *CommandList) Discard() {
	if l.closed || l.encoder == nil {
		return
	}
	l.encoder.DiscardEncoding()
	l.encoder = nil
	l.closed = true
}
