// Package mesh holds indexed triangle meshes and the byte views uploaded
// to vertex and index buffers.
package mesh

import (
	"encoding/binary"
	"math"
)

// VertexStride is the size of one Vertex in a vertex buffer.
const VertexStride = 24

// IndexSize is the size of one index in an index buffer.
const IndexSize = 2

// Vertex is a colored vertex. The buffer layout is position at offset 0
// followed by color at offset 12, both float32x3.
type Vertex struct {
	Position [3]float32
	Color    [3]float32
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() int { return len(m.Indices) }

// TriangleCount returns the number of complete triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Triangle returns the vertices of triangle i.
func (m *Mesh) Triangle(i int) [3]Vertex {
	return [3]Vertex{
		m.Vertices[m.Indices[i*3]],
		m.Vertices[m.Indices[i*3+1]],
		m.Vertices[m.Indices[i*3+2]],
	}
}

// VertexBytes returns the vertices in little-endian buffer layout.
func (m *Mesh) VertexBytes() []byte {
	buf := make([]byte, 0, len(m.Vertices)*VertexStride)
	for _, v := range m.Vertices {
		buf = appendVertex(buf, v)
	}
	return buf
}

// TriangleListBytes returns one vertex per index, so the mesh can be
// drawn as a non-indexed triangle list.
func (m *Mesh) TriangleListBytes() []byte {
	buf := make([]byte, 0, len(m.Indices)*VertexStride)
	for _, i := range m.Indices {
		buf = appendVertex(buf, m.Vertices[i])
	}
	return buf
}

func appendVertex(buf []byte, v Vertex) []byte {
	for _, f := range v.Position {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range v.Color {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// IndexBytes returns the indices in little-endian buffer layout, padded to
// a multiple of 4 bytes as buffer writes require.
func (m *Mesh) IndexBytes() []byte {
	size := len(m.Indices) * IndexSize
	buf := make([]byte, 0, (size+3)&^3)
	for _, i := range m.Indices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}
