package mesh

// Cube returns the unit cube spanning [-1, 1] on each axis, shaded in
// cyan with two magenta corners.
func Cube() *Mesh {
	return &Mesh{
		Vertices: []Vertex{
			{Position: [3]float32{1, -1, 1}, Color: [3]float32{1, 0.66, 1}},
			{Position: [3]float32{1, 1, 1}, Color: [3]float32{0, 0.66, 1}},
			{Position: [3]float32{-1, 1, 1}, Color: [3]float32{0, 0.66, 1}},
			{Position: [3]float32{-1, -1, 1}, Color: [3]float32{0, 0.66, 1}},
			{Position: [3]float32{1, -1, -1}, Color: [3]float32{0, 0.66, 1}},
			{Position: [3]float32{1, 1, -1}, Color: [3]float32{0, 0.66, 1}},
			{Position: [3]float32{-1, 1, -1}, Color: [3]float32{1, 0.66, 1}},
			{Position: [3]float32{-1, -1, -1}, Color: [3]float32{0, 0.66, 1}},
		},
		Indices: []uint16{
			0, 1, 2, 2, 3, 0, // front
			7, 6, 5, 5, 4, 7, // back
			3, 2, 6, 6, 7, 3, // left
			4, 5, 1, 1, 0, 4, // right
			6, 2, 1, 1, 5, 6, // top
			3, 7, 4, 4, 0, 3, // bottom
		},
	}
}
