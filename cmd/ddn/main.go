// Command ddn runs the 3Dandelion frame loop: a spinning cube over a gray
// clear color cycling each frame, presented through a swap chain.
//
// By default it renders a fixed number of frames off-screen with the
// software backend and saves the last one as PNG.
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/gg"

	ddn "github.com/delivron/3dandelion"
	"github.com/delivron/3dandelion/app"
	_ "github.com/delivron/3dandelion/backend/soft"
)

func main() {
	var (
		config  = flag.String("config", "", "YAML configuration file")
		width   = flag.Uint("width", 0, "window width (overrides config)")
		height  = flag.Uint("height", 0, "window height (overrides config)")
		frames  = flag.Uint64("frames", 120, "frames to render, 0 until the window closes")
		buffers = flag.Uint("buffers", 0, "back buffer count (overrides config)")
		name    = flag.String("backend", "", "backend name, empty for the default")
		output  = flag.String("output", "ddn.png", "PNG file for the last frame, empty for none")
		verbose = flag.Bool("v", false, "log frame loop events to stderr")
	)
	flag.Parse()

	if *verbose {
		ddn.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := app.DefaultConfig()
	if *config != "" {
		var err error
		if cfg, err = app.Load(*config); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if *width != 0 {
		cfg.Width = uint32(*width) //nolint:gosec // window sizes fit in uint32
	}
	if *height != 0 {
		cfg.Height = uint32(*height) //nolint:gosec // window sizes fit in uint32
	}
	if *buffers != 0 {
		cfg.BackBuffers = uint32(*buffers) //nolint:gosec // validated by app
	}
	if *config == "" || set["frames"] {
		cfg.Frames = *frames
	}
	if *name != "" {
		cfg.Backend = *name
	}
	if *config == "" || set["output"] {
		cfg.Output = *output
	}

	win, err := openWindow(cfg)
	if err != nil {
		log.Fatalf("Failed to open window: %v", err)
	}
	a, err := app.New(cfg, app.WithWindow(win))
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	runErr := a.Run(ctx)
	stop()
	stats := a.Stats()
	if err := a.Close(); err != nil {
		log.Printf("Shutdown: %v", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("Frame loop failed: %v", runErr)
	}

	log.Printf("Rendered %d frames (last ticket %d, %dx%d)", stats.Frames, stats.LastTicket, stats.Width, stats.Height)
	if cfg.Output == "" {
		return
	}
	frame := lastFrame(win)
	if frame == nil {
		log.Printf("No frame to save: the window keeps no copy")
		return
	}
	if err := gg.NewContextForImage(frame).SavePNG(cfg.Output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Last frame saved to %s", cfg.Output)
}

type frameKeeper interface {
	LastFrame() *image.RGBA
}

// lastFrame returns the last presented frame if the window stores one.
func lastFrame(win any) image.Image {
	k, ok := win.(frameKeeper)
	if !ok {
		return nil
	}
	if f := k.LastFrame(); f != nil {
		return f
	}
	return nil
}
