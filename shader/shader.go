// Package shader compiles the WGSL sources used by the GPU backend.
package shader

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// Cube is the WGSL source of the colored cube pipeline. The vertex stage
// reads position at location 0 and color at location 1 and transforms by
// the projection-view-model matrix bound at group 0, binding 0.
//
//go:embed cube.wgsl
var Cube string

// ErrEmptySource is returned when there is nothing to compile.
var ErrEmptySource = errors.New("shader: empty source")

// CompileWGSL compiles WGSL source to SPIR-V words.
func CompileWGSL(src string) ([]uint32, error) {
	if src == "" {
		return nil, ErrEmptySource
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	return Words(spirv)
}

// Words converts a little-endian SPIR-V byte stream to 32-bit words.
func Words(spirv []byte) ([]uint32, error) {
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("shader: SPIR-V length %d is not a multiple of 4", len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words, nil
}
