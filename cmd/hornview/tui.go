package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/hornview/internal/config"
	"github.com/taigrr/hornview/internal/logger"
	"github.com/taigrr/hornview/internal/viewer"
	"github.com/taigrr/hornview/pkg/render"
)

const (
	torqueStrength = 3.0
	dragSpeed      = 0.03
	texScaleStep   = 1.25
)

// input is the keyboard and mouse state carried between frames.
type input struct {
	pitch, yaw, roll float64
	mouseDown        bool
	lastX, lastY     int
}

func run(cfg *config.Config) error {
	// Console logging would draw over the screen.
	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile, nil)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	textures, _ := render.LoadTextureSet(ctx, textureSources(cfg), nil)
	v, err := viewer.New(cfg, log, textures)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		_ = term.Shutdown(context.Background())
	}
	defer cleanup()

	termRenderer := render.NewTerminalRenderer(term, width, height)
	v.Resize(termRenderer.FramebufferSize())

	hud := viewer.NewHUD(cfg.Render.ShowHUD, time.Now())

	// Events are forwarded to the frame loop, which owns all viewer state.
	events := make(chan uv.Event, 64)
	go func() {
		defer close(events)
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var in input
	targetDuration := time.Second / time.Duration(cfg.Render.FPS)
	lastFrame := time.Now()

	for {
		now := time.Now()

	drain:
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				switch ev := ev.(type) {
				case uv.WindowSizeEvent:
					width, height = ev.Width, ev.Height
					term.Erase()
					term.Resize(width, height)
					termRenderer = render.NewTerminalRenderer(term, width, height)
					v.Resize(termRenderer.FramebufferSize())
				default:
					if quit := handleEvent(ev, v, hud, &in, now); quit {
						return nil
					}
				}
			default:
				break drain
			}
		}

		dt := min(now.Sub(lastFrame).Seconds(), 0.1)
		lastFrame = now

		// Key release events are unreliable, so held torque decays.
		v.Rotation.ApplyImpulse(in.pitch*dt, in.yaw*dt, in.roll*dt)
		in.pitch *= 0.9
		in.yaw *= 0.9
		in.roll *= 0.9

		v.Frame(now)

		termRenderer.Render(v.Framebuffer())
		if err := termRenderer.Flush(); err != nil {
			log.Error("flush failed", zap.Error(err))
			return fmt.Errorf("flush: %w", err)
		}

		hud.UpdateFPS(now)
		hud.Render(os.Stdout, width, height, v.Status())

		if elapsed := time.Since(now); elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// handleEvent applies one input event. It reports whether to quit.
func handleEvent(ev uv.Event, v *viewer.Viewer, hud *viewer.HUD, in *input, now time.Time) bool {
	switch ev := ev.(type) {
	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape", "ctrl+c"):
			return true
		case ev.MatchString("w", "up"):
			in.pitch = -torqueStrength
		case ev.MatchString("s", "down"):
			in.pitch = torqueStrength
		case ev.MatchString("a", "left"):
			in.yaw = -torqueStrength
		case ev.MatchString("d", "right"):
			in.yaw = torqueStrength
		case ev.MatchString("q"):
			in.roll = -torqueStrength
		case ev.MatchString("e"):
			in.roll = torqueStrength
		case ev.MatchString("u"):
			v.StepResolution(1, 0, now)
		case ev.MatchString("U", "shift+u"):
			v.StepResolution(-1, 0, now)
		case ev.MatchString("v"):
			v.StepResolution(0, 1, now)
		case ev.MatchString("V", "shift+v"):
			v.StepResolution(0, -1, now)
		case ev.MatchString("]"):
			v.MultiplyTexScale(texScaleStep)
		case ev.MatchString("["):
			v.MultiplyTexScale(1 / texScaleStep)
		case ev.MatchString("i"):
			v.MovePivot(0, viewer.PivotStep)
		case ev.MatchString("k"):
			v.MovePivot(0, -viewer.PivotStep)
		case ev.MatchString("j"):
			v.MovePivot(-viewer.PivotStep, 0)
		case ev.MatchString("l"):
			v.MovePivot(viewer.PivotStep, 0)
		case ev.MatchString("m"):
			v.CycleMode()
		case ev.MatchString("+", "="):
			v.AdjustScale(viewer.ScaleStep)
		case ev.MatchString("-", "_"):
			v.AdjustScale(-viewer.ScaleStep)
		case ev.MatchString("r"):
			v.Reset()
		case ev.MatchString("space"):
			v.Rotation.ApplyImpulse(
				(rand.Float64()-0.5)*1.5,
				(rand.Float64()-0.5)*1.5,
				(rand.Float64()-0.5)*1.5,
			)
		case ev.MatchString("?"), ev.MatchString("shift+/"):
			hud.Visible = !hud.Visible
		}

	case uv.KeyReleaseEvent:
		switch {
		case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
			in.pitch = 0
		case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
			in.yaw = 0
		case ev.MatchString("q"), ev.MatchString("e"):
			in.roll = 0
		}

	case uv.MouseClickEvent:
		in.mouseDown = true
		in.lastX, in.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		in.mouseDown = false

	case uv.MouseMotionEvent:
		if in.mouseDown {
			dx := ev.X - in.lastX
			dy := ev.Y - in.lastY
			v.Rotation.ApplyImpulse(float64(dy)*dragSpeed, float64(dx)*dragSpeed, 0)
			in.lastX, in.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.AdjustScale(viewer.ScaleStep)
		case uv.MouseWheelDown:
			v.AdjustScale(-viewer.ScaleStep)
		}
	}
	return false
}
