package soft

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	"golang.org/x/image/draw"

	ddn "github.com/delivron/3dandelion"
)

type command func() error

// CommandList records drawing into back buffers. Commands run when the
// list is executed on a queue, in the order they were recorded. A list
// must be closed before it is executed and reset before it is reused.
type CommandList struct {
	label   string
	cmds    []command
	targets []*BackBuffer
	closed  bool
}

// NewCommandList returns an empty list in the recording state.
func NewCommandList(label string) *CommandList {
	return &CommandList{label: label}
}

// Label returns the debug label.
func (l *CommandList) Label() string { return l.label }

// Len returns the number of recorded commands.
func (l *CommandList) Len() int { return len(l.cmds) }

// Closed reports whether recording has finished.
func (l *CommandList) Closed() bool { return l.closed }

// Clear fills target with c.
func (l *CommandList) Clear(target *BackBuffer, c color.RGBA) error {
	return l.record(target, func() error {
		draw.Draw(target.img, target.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
		return nil
	})
}

// Draw calls fn with the target image when the list executes.
func (l *CommandList) Draw(target *BackBuffer, fn func(dst *image.RGBA) error) error {
	return l.record(target, func() error { return fn(target.img) })
}

// Composite draws src over target, stretched to the target size.
func (l *CommandList) Composite(target *BackBuffer, src image.Image) error {
	return l.record(target, func() error {
		draw.ApproxBiLinear.Scale(target.img, target.img.Bounds(), src, src.Bounds(), draw.Over, nil)
		return nil
	})
}

// Close finishes recording.
func (l *CommandList) Close() error {
	if l.closed {
		return fmt.Errorf("%w: %q", ErrListClosed, l.label)
	}
	l.closed = true
	return nil
}

// Reset discards the recorded commands and reopens the list. The list
// must not be pending on a queue.
func (l *CommandList) Reset() {
	clear(l.cmds)
	l.cmds = l.cmds[:0]
	clear(l.targets)
	l.targets = l.targets[:0]
	l.closed = false
}

func (l *CommandList) record(target *BackBuffer, cmd command) error {
	if l.closed {
		return fmt.Errorf("%w: %q", ErrListClosed, l.label)
	}
	if target == nil {
		return fmt.Errorf("%w: nil back buffer", ErrForeignObject)
	}
	l.cmds = append(l.cmds, cmd)
	if !slices.Contains(l.targets, target) {
		l.targets = append(l.targets, target)
	}
	return nil
}

func (l *CommandList) execute() error {
	for i, cmd := range l.cmds {
		if err := cmd(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	return nil
}

// BackBufferFromResource returns the back buffer behind a swap chain resource.
func BackBufferFromResource(r ddn.Resource) (*BackBuffer, error) {
	bb, ok := r.(*BackBuffer)
	if !ok || bb == nil {
		return nil, fmt.Errorf("%w: back buffer is %T", ErrForeignObject, r)
	}
	return bb, nil
}
