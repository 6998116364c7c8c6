// Package app runs the 3Dandelion frame loop: a window, a keyboard, a
// camera looking at a spinning cube, and the queue, swap chain and
// renderer of a backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"

	ddn "github.com/delivron/3dandelion"
	"github.com/delivron/3dandelion/backend"
	"github.com/delivron/3dandelion/camera"
	"github.com/delivron/3dandelion/input"
	"github.com/delivron/3dandelion/mesh"
	"github.com/delivron/3dandelion/render"
	"github.com/delivron/3dandelion/window"
)

// ErrClosed is returned by Run on a closed App.
var ErrClosed = errors.New("app: closed")

// Option configures an App.
type Option func(*App)

// WithWindow runs the loop on w instead of a headless window of the
// configured size.
func WithWindow(w window.Window) Option {
	return func(a *App) { a.win = w }
}

// WithBackend runs the loop on b instead of opening cfg.Backend. The App
// initializes b but does not close it.
func WithBackend(b backend.Backend) Option {
	return func(a *App) { a.backend = b }
}

// Stats are counters of the running loop.
type Stats struct {
	// Frames is the number of presented frames.
	Frames uint64

	// LastTicket is the fence ticket issued by the last present.
	LastTicket uint64

	// Width and Height are the current back buffer size.
	Width, Height uint32
}

// App owns the frame loop. Its methods must be called from the goroutine
// that pumps the window.
type App struct {
	cfg     Config
	session uuid.UUID
	log     *slog.Logger

	win         window.Window
	keyboard    *input.Keyboard
	camera      *camera.Camera
	cube        *mesh.Mesh
	backend     backend.Backend
	ownsBackend bool
	queue       *ddn.CommandQueue
	sc          *ddn.SwapChain
	renderer    render.Renderer
	unsubscribe []func()

	level  float32
	angle  float32
	frames uint64
	err    error
	closed bool
}

// New validates cfg and builds the frame loop. The window is shown before
// New returns.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		cfg:      cfg,
		session:  uuid.New(),
		keyboard: input.NewKeyboard(),
		cube:     mesh.Cube(),
		level:    cfg.Clear.Start,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = ddn.Logger().With("session", a.session.String())
	if a.win == nil {
		a.win = window.NewHeadless(cfg.Width, cfg.Height)
	}

	if err := a.build(); err != nil {
		a.teardown()
		return nil, err
	}

	a.unsubscribe = append(a.unsubscribe,
		a.win.Subscribe(a.keyboard.Listener()),
		a.win.Subscribe(window.Listener{
			OnResize:  a.onResize,
			OnUpdate:  a.onUpdate,
			OnDestroy: a.onDestroy,
		}),
	)
	a.win.Show()
	a.log.Info("app: started",
		"backend", a.backend.Name(),
		"width", a.sc.Width(),
		"height", a.sc.Height(),
		"buffers", a.sc.BackBufferCount(),
		"tearing", a.sc.TearingSupported())
	return a, nil
}

func (a *App) build() error {
	if a.backend == nil {
		b, err := backend.Open(a.cfg.Backend)
		if err != nil {
			return err
		}
		a.backend, a.ownsBackend = b, true
	} else if err := a.backend.Init(); err != nil {
		return fmt.Errorf("app: init backend %s: %w", a.backend.Name(), err)
	}

	var err error
	a.queue, err = ddn.NewCommandQueue(a.backend.Device(), ddn.QueueTypeDirect)
	if err != nil {
		return err
	}
	a.sc, err = ddn.NewSwapChain(a.backend.Factory(), a.queue, a.win, a.cfg.BackBuffers,
		ddn.WithSyncInterval(a.cfg.SyncInterval),
		ddn.WithTearing(a.cfg.Tearing),
		ddn.WithFormat(gputypes.TextureFormatRGBA8Unorm))
	if err != nil {
		return err
	}
	a.renderer, err = a.backend.NewRenderer(a.sc.Format())
	if err != nil {
		return err
	}

	a.camera = camera.New(a.sc.Width(), a.sc.Height(), a.cfg.Camera.FovY, a.cfg.Camera.Near, a.cfg.Camera.Far)
	a.camera.SetPosition(camera.Vec3{Z: a.cfg.Camera.Distance})
	return nil
}

// Session returns the id tagging this run's log records.
func (a *App) Session() uuid.UUID { return a.session }

// Window returns the window the loop presents to.
func (a *App) Window() window.Window { return a.win }

// Keyboard returns the key state fed by the window.
func (a *App) Keyboard() *input.Keyboard { return a.keyboard }

// Camera returns the scene camera.
func (a *App) Camera() *camera.Camera { return a.camera }

// Stats returns the loop counters.
func (a *App) Stats() Stats {
	s := Stats{Frames: a.frames}
	if a.sc != nil && !a.closed {
		s.LastTicket = a.sc.LastTicket()
		s.Width, s.Height = a.sc.Width(), a.sc.Height()
	}
	return s
}

// Err returns the error that stopped the loop, if any.
func (a *App) Err() error { return a.err }

// Run pumps the window until it closes, the frame limit is reached, a
// frame fails or ctx is done. It returns the frame error, or ctx.Err()
// when the context ended the loop. Resources stay alive until Close.
func (a *App) Run(ctx context.Context) error {
	if a.closed {
		return ErrClosed
	}
	for {
		if ctx.Err() != nil || a.err != nil {
			a.win.Close()
		}
		if !a.win.Pump() {
			break
		}
	}
	if a.err != nil {
		return a.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.log.Info("app: stopped", "frames", a.frames)
	return nil
}

// Close unsubscribes from the window and releases the loop in reverse
// creation order after the queue drains. Close is idempotent.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	for _, unsubscribe := range a.unsubscribe {
		unsubscribe()
	}
	a.unsubscribe = nil
	return a.teardown()
}

func (a *App) teardown() error {
	var err error
	if a.sc != nil {
		err = a.sc.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.queue != nil {
		a.queue.Close()
	}
	if a.backend != nil && a.ownsBackend {
		a.backend.Close()
	}
	return err
}

func (a *App) onUpdate() {
	if a.err != nil {
		return
	}
	if err := a.frame(); err != nil {
		a.err = fmt.Errorf("app: frame %d: %w", a.frames+1, err)
		a.log.Error("app: frame failed", "err", a.err)
		return
	}
	if a.cfg.Frames > 0 && a.frames >= a.cfg.Frames {
		a.win.Close()
	}
}

// frame records, submits and presents one frame.
func (a *App) frame() error {
	a.level += a.cfg.Clear.Step
	if a.level > 1 {
		a.level = 0
	}
	// Space holds the cube still.
	if !a.keyboard.IsKeyPressed(window.KeySpace) {
		a.angle += a.cfg.Spin
	}

	index := a.sc.CurrentBackBufferIndex()
	f := &render.Frame{
		Number:         a.frames + 1,
		Index:          index,
		Target:         a.sc.BackBuffer(index),
		Width:          a.sc.Width(),
		Height:         a.sc.Height(),
		Format:         a.sc.Format(),
		Clear:          gray(a.level),
		ProjectionView: a.camera.ProjectionView(),
		Model:          camera.RotationY(a.angle).Mul(camera.RotationX(a.angle * 0.5)),
		Mesh:           a.cube,
	}
	if a.cfg.Overlay {
		f.Overlay = a.overlay()
	}

	a.queue.Clear()
	lists, err := a.renderer.Record(f)
	if err != nil {
		return err
	}
	for _, cl := range lists {
		a.queue.Add(cl)
	}
	if err := a.queue.Execute(); err != nil {
		return err
	}
	if err := a.sc.Present(); err != nil {
		return err
	}
	a.frames++
	a.renderer.Retire(a.sc.CurrentBackBufferIndex())
	return nil
}

func (a *App) overlay() string {
	return fmt.Sprintf("%s  frame %d  ticket %d  %dx%d",
		a.session.String()[:8], a.frames+1, a.sc.LastTicket(), a.sc.Width(), a.sc.Height())
}

func (a *App) onResize(width, height uint32) {
	if a.err != nil {
		return
	}
	if err := a.sc.Resize(width, height); err != nil {
		a.err = fmt.Errorf("app: resize: %w", err)
		a.log.Error("app: resize failed", "err", a.err)
		return
	}
	a.camera.OnResize(a.sc.Width(), a.sc.Height())
}

func (a *App) onDestroy() {
	if err := a.queue.Flush(); err != nil && a.err == nil {
		a.err = fmt.Errorf("app: flush on destroy: %w", err)
	}
}

func gray(level float32) gputypes.Color {
	v := float64(level)
	return gputypes.Color{R: v, G: v, B: v, A: 1}
}
