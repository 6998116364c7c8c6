package soft

import (
	"fmt"
	"image/color"

	"github.com/gogpu/gg"
	"github.com/gogpu/gputypes"
)

// layer holds the per-slot resources of a renderer: command lists that are
// recycled once their slot retires, and one gg canvas per slot.
type layer struct {
	label    string
	free     []*CommandList
	inUse    map[uint32][]*CommandList
	canvases map[uint32]*gg.Context
}

func newLayer(label string) layer {
	return layer{
		label:    label,
		inUse:    make(map[uint32][]*CommandList),
		canvases: make(map[uint32]*gg.Context),
	}
}

// list returns a reset list charged to slot.
func (l *layer) list(slot uint32) *CommandList {
	var cl *CommandList
	if n := len(l.free); n > 0 {
		cl = l.free[n-1]
		l.free[n-1] = nil
		l.free = l.free[:n-1]
		cl.Reset()
	} else {
		cl = NewCommandList(fmt.Sprintf("%s/%d", l.label, slot))
	}
	l.inUse[slot] = append(l.inUse[slot], cl)
	return cl
}

// canvas returns slot's canvas sized width x height.
func (l *layer) canvas(slot, width, height uint32) *gg.Context {
	dc := l.canvases[slot]
	if dc != nil && dc.Width() == int(width) && dc.Height() == int(height) {
		return dc
	}
	if dc != nil {
		_ = dc.Close()
	}
	dc = gg.NewContext(int(width), int(height))
	l.canvases[slot] = dc
	return dc
}

// retire returns slot's lists to the free list.
func (l *layer) retire(slot uint32) {
	l.free = append(l.free, l.inUse[slot]...)
	delete(l.inUse, slot)
}

// pooled returns the number of lists ready for reuse.
func (l *layer) pooled() int { return len(l.free) }

func (l *layer) close() {
	for slot, dc := range l.canvases {
		_ = dc.Close()
		delete(l.canvases, slot)
	}
	l.free = nil
	clear(l.inUse)
}

func toRGBA(c gputypes.Color) color.RGBA {
	return color.RGBA{
		R: unit8(float64(c.R)),
		G: unit8(float64(c.G)),
		B: unit8(float64(c.B)),
		A: unit8(float64(c.A)),
	}
}

func unit8(v float64) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}
