package soft

import (
	"image"
	"slices"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/draw"

	ddn "github.com/delivron/3dandelion"
	"github.com/delivron/3dandelion/camera"
	"github.com/delivron/3dandelion/mesh"
	"github.com/delivron/3dandelion/render"
)

// SceneRenderer clears the back buffer and draws the frame's mesh with gg.
// Triangles are projected when the frame is recorded and filled back to
// front when the list executes.
type SceneRenderer struct {
	layer
}

// NewSceneRenderer returns a scene renderer with no resources allocated.
func NewSceneRenderer() *SceneRenderer {
	return &SceneRenderer{layer: newLayer("scene")}
}

// Record returns a clear list and, when the frame has a mesh, a draw list.
func (r *SceneRenderer) Record(f *render.Frame) ([]ddn.CommandList, error) {
	bb, err := BackBufferFromResource(f.Target)
	if err != nil {
		return nil, err
	}

	clearList := r.list(f.Index)
	if err := clearList.Clear(bb, toRGBA(f.Clear)); err != nil {
		return nil, err
	}
	if err := clearList.Close(); err != nil {
		return nil, err
	}
	if f.Mesh == nil {
		return []ddn.CommandList{clearList}, nil
	}

	tris := project(f.Mesh, f.MVP(), f.Width, f.Height)
	dc := r.canvas(f.Index, f.Width, f.Height)
	drawList := r.list(f.Index)
	err = drawList.Draw(bb, func(dst *image.RGBA) error {
		dc.Clear()
		for _, t := range tris {
			dc.SetRGB(t.color[0], t.color[1], t.color[2])
			dc.MoveTo(t.pts[0][0], t.pts[0][1])
			dc.LineTo(t.pts[1][0], t.pts[1][1])
			dc.LineTo(t.pts[2][0], t.pts[2][1])
			dc.ClosePath()
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		draw.Draw(dst, dst.Bounds(), dc.Image(), image.Point{}, draw.Over)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := drawList.Close(); err != nil {
		return nil, err
	}
	return []ddn.CommandList{clearList, drawList}, nil
}

// Retire recycles the lists recorded for slot index.
func (r *SceneRenderer) Retire(index uint32) { r.retire(index) }

// Close releases the canvases.
func (r *SceneRenderer) Close() { r.close() }

// screenTri is a projected triangle in pixel coordinates.
type screenTri struct {
	pts   [3][2]float64
	depth float32
	color [3]float64
}

// project transforms m by mvp into a width x height viewport. Triangles
// behind the eye or facing away are dropped; the rest are sorted far to
// near.
func project(m *mesh.Mesh, mvp camera.Mat4, width, height uint32) []screenTri {
	w, h := float32(width), float32(height)
	tris := make([]screenTri, 0, m.TriangleCount())
next:
	for i := range m.TriangleCount() {
		var ndc [3][3]float32
		var t screenTri
		for k, v := range m.Triangle(i) {
			x, y, z, cw := mvp.Transform(camera.Vec3{X: v.Position[0], Y: v.Position[1], Z: v.Position[2]})
			if cw <= 0 {
				continue next
			}
			ndc[k] = [3]float32{x / cw, y / cw, z / cw}
			t.pts[k] = [2]float64{float64((ndc[k][0] + 1) / 2 * w), float64((1 - ndc[k][1]) / 2 * h)}
			for c := range 3 {
				t.color[c] += float64(v.Color[c]) / 3
			}
			t.depth += ndc[k][2] / 3
		}
		// Counter-clockwise in NDC faces the camera.
		area := (ndc[1][0]-ndc[0][0])*(ndc[2][1]-ndc[0][1]) - (ndc[2][0]-ndc[0][0])*(ndc[1][1]-ndc[0][1])
		if area <= 0 {
			continue
		}
		tris = append(tris, t)
	}
	slices.SortStableFunc(tris, func(a, b screenTri) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		}
		return 0
	})
	return tris
}

// OverlayRenderer draws the frame's overlay text in the top-left corner.
type OverlayRenderer struct {
	layer
	face text.Face
	size float64
}

// NewOverlayRenderer returns an overlay renderer drawing with face at the
// given size in pixels. A nil face disables the overlay.
func NewOverlayRenderer(face text.Face, size float64) *OverlayRenderer {
	return &OverlayRenderer{layer: newLayer("overlay"), face: face, size: size}
}

// Record returns one list drawing f.Overlay, or none for empty text.
func (r *OverlayRenderer) Record(f *render.Frame) ([]ddn.CommandList, error) {
	if r.face == nil || f.Overlay == "" {
		return nil, nil
	}
	bb, err := BackBufferFromResource(f.Target)
	if err != nil {
		return nil, err
	}

	line := f.Overlay
	dc := r.canvas(f.Index, f.Width, f.Height)
	cl := r.list(f.Index)
	err = cl.Draw(bb, func(dst *image.RGBA) error {
		dc.Clear()
		dc.SetFont(r.face)
		dc.SetRGB(1, 1, 1)
		dc.DrawString(line, r.size/2, r.size*1.5)
		draw.Draw(dst, dst.Bounds(), dc.Image(), image.Point{}, draw.Over)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := cl.Close(); err != nil {
		return nil, err
	}
	return []ddn.CommandList{cl}, nil
}

// Retire recycles the lists recorded for slot index.
func (r *OverlayRenderer) Retire(index uint32) { r.retire(index) }

// Close releases the canvases.
func (r *OverlayRenderer) Close() { r.close() }

var (
	_ render.Renderer = (*SceneRenderer)(nil)
	_ render.Renderer = (*OverlayRenderer)(nil)
)
