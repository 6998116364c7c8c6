// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	ddn "github.com/delivron/3dandelion"
)

// ErrNoTarget is returned when a frame has no back buffer to render to.
var ErrNoTarget = errors.New("render: frame has no target")

// Renderer records the command lists that draw a frame.
//
// Lists returned by Record are added to the command queue in order and
// executed in one submission. The lists recorded for a back buffer slot
// stay in use until the frame loop calls Retire for that slot, which
// happens only after the swap chain has waited for the slot's last frame.
//
// Thread Safety: Record may be called concurrently for different layers of
// a Stack, but never concurrently on the same Renderer.
type Renderer interface {
	// Record returns the lists that draw f into f.Target.
	Record(f *Frame) ([]ddn.CommandList, error)

	// Retire reports that the lists last recorded for slot index have
	// finished executing and their storage may be reused.
	Retire(index uint32)

	// Close releases the renderer's resources. The device must be idle.
	Close()
}

// Stack is a Renderer made of layers drawn bottom to top. Layers are
// recorded concurrently; their lists are returned in layer order.
type Stack struct {
	layers []Renderer
}

// NewStack returns a stack of the non-nil layers, first layer drawn first.
func NewStack(layers ...Renderer) *Stack {
	s := &Stack{}
	for _, l := range layers {
		if l != nil {
			s.layers = append(s.layers, l)
		}
	}
	return s
}

// Len returns the number of layers.
func (s *Stack) Len() int { return len(s.layers) }

// Record records every layer and concatenates the lists in layer order.
// The first layer error is returned.
func (s *Stack) Record(f *Frame) ([]ddn.CommandList, error) {
	if f == nil || f.Target == nil {
		return nil, ErrNoTarget
	}
	results := make([][]ddn.CommandList, len(s.layers))
	var g errgroup.Group
	for i, layer := range s.layers {
		g.Go(func() error {
			lists, err := layer.Record(f)
			if err != nil {
				return fmt.Errorf("render: layer %d: %w", i, err)
			}
			results[i] = lists
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []ddn.CommandList
	for _, lists := range results {
		out = append(out, lists...)
	}
	return out, nil
}

// Retire retires slot index on every layer.
func (s *Stack) Retire(index uint32) {
	for _, l := range s.layers {
		l.Retire(index)
	}
}

// Close closes the layers top to bottom.
func (s *Stack) Close() {
	for i := len(s.layers) - 1; i >= 0; i-- {
		s.layers[i].Close()
	}
}

var _ Renderer = (*Stack)(nil)
