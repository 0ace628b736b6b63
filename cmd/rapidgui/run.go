package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/rapidgui/pkg/bus"
	"github.com/odvcencio/rapidgui/pkg/config"
	"github.com/odvcencio/rapidgui/pkg/docwatch"
	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/inspect"
	"github.com/odvcencio/rapidgui/pkg/logging"
	"github.com/odvcencio/rapidgui/pkg/rapidgui"
	"github.com/odvcencio/rapidgui/pkg/relay"
	"github.com/odvcencio/rapidgui/pkg/ui/backend/raster"
)

// screenshotTimeout bounds how long -screenshot waits for the first frame.
const screenshotTimeout = 5 * time.Second

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseOptions(args, stderr)
	if errors.Is(err, errHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "rapidgui %s (commit %s, built %s)\n", version, commit, buildDate)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return withExitCode(err, exitUsage)
	}

	backendName := resolveBackend(cfg.Backend)
	logger, closeLog, err := newLogger(cfg, backendName, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	if opts.screenshot != "" {
		return screenshot(ctx, opts, cfg, logger)
	}

	p := &preview{opts: opts, cfg: cfg, backendName: backendName, logger: logger}
	return p.run(ctx)
}

// screenshot renders the document once with the raster backend and writes a PNG.
func screenshot(ctx context.Context, opts cliOptions, cfg *config.Config, logger *logging.Logger) error {
	be := raster.New()
	app, err := rapidgui.Load(ctx, opts.document,
		rapidgui.WithBackend(be),
		rapidgui.WithConfig(cfg),
		rapidgui.WithLogger(logger),
	)
	if err != nil {
		return withExitCode(err, exitUsage)
	}

	deadline := time.Now().Add(screenshotTimeout)
	for be.Frames() == 0 {
		if time.Now().After(deadline) {
			app.Close()
			return rgerrors.New(rgerrors.ErrCodeBackendInit, "no frame rendered before timeout")
		}
		select {
		case <-app.Done():
			if err := app.Wait(); err != nil {
				return err
			}
			return rgerrors.New(rgerrors.ErrCodeBackendInit, "window closed before the first frame")
		case <-time.After(cfg.FrameInterval):
		}
	}

	app.Close()
	if err := app.Wait(); err != nil {
		return err
	}
	if err := be.SavePNG(opts.screenshot); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	logger.Info("screenshot written", "path", opts.screenshot)
	return nil
}

// preview runs the window on the calling goroutine, rebuilding it when the
// watched document changes.
type preview struct {
	opts        cliOptions
	cfg         *config.Config
	backendName string
	logger      *logging.Logger

	bus   bus.MessageBus
	relay *relay.Relay
}

func (p *preview) run(ctx context.Context) error {
	if p.cfg.Relay.Enabled() {
		mb, err := openBus(p.cfg.Relay)
		if err != nil {
			return err
		}
		defer mb.Close()
		p.bus = mb

		r := relay.New(mb, relay.Options{
			Prefix:  p.cfg.Relay.SubjectPrefix,
			Timeout: p.cfg.Relay.Timeout,
			Logger:  p.logger,
		})
		defer r.Close()
		p.relay = r
	}

	var changes <-chan docwatch.Change
	if p.opts.watch {
		w, err := docwatch.New(p.opts.document, docwatch.Options{Logger: p.logger})
		if err != nil {
			return err
		}
		defer w.Close()

		ch := make(chan docwatch.Change, 1)
		go func() {
			_ = w.Run(ctx, func(c docwatch.Change) {
				select {
				case ch <- c:
				default:
				}
			})
		}()
		changes = ch
	}

	for {
		app, err := p.load(ctx)
		if err != nil {
			if changes == nil {
				return withExitCode(err, exitUsage)
			}
			p.logger.Error("document rejected, waiting for the next change", "error", err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				continue
			}
		}

		reload, err := p.session(ctx, app, changes)
		if !reload || ctx.Err() != nil {
			return err
		}
	}
}

func (p *preview) load(ctx context.Context) (*rapidgui.App, error) {
	be, err := newBackend(p.backendName, p.cfg)
	if err != nil {
		return nil, err
	}
	opts := []rapidgui.Option{
		rapidgui.WithBackend(be),
		rapidgui.WithConfig(p.cfg),
		rapidgui.WithLogger(p.logger),
		rapidgui.Manual(),
	}
	if p.relay != nil {
		opts = append(opts, rapidgui.WithObserver(p.relay))
	}
	return rapidgui.Load(ctx, p.opts.document, opts...)
}

// session runs one window until it closes. It reports whether the window was
// closed to pick up a document change.
func (p *preview) session(ctx context.Context, app *rapidgui.App, changes <-chan docwatch.Change) (bool, error) {
	g, gctx := errgroup.WithContext(ctx)
	var reload atomic.Bool

	if p.bus != nil {
		sub, err := relay.ServeControl(gctx, p.bus, p.cfg.Relay.SubjectPrefix, app.Name(), app, p.logger)
		if err != nil {
			return false, err
		}
		defer sub.Unsubscribe()
	}

	if p.cfg.Inspect.Listen != "" {
		srv := inspect.New(app, p.cfg.Inspect.Listen, p.logger)
		g.Go(func() error {
			if err := srv.Serve(gctx); err != nil {
				app.Close()
				return fmt.Errorf("inspect server: %w", err)
			}
			return nil
		})
	}

	if changes != nil {
		g.Go(func() error {
			select {
			case <-changes:
				reload.Store(true)
				app.Close()
			case <-app.Done():
			case <-gctx.Done():
			}
			return nil
		})
	}

	runErr := app.Run(gctx)
	app.Close()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return reload.Load(), runErr
}

func openBus(cfg config.RelayConfig) (bus.MessageBus, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.URL), "memory") {
		return bus.NewMemoryBus(), nil
	}
	mb, err := bus.NewNATSBus(bus.Config{URL: cfg.URL, Name: cfg.Name, Timeout: cfg.Timeout})
	if err != nil {
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeBackendInit, "failed to connect relay bus").
			WithContext("url", cfg.URL)
	}
	return mb, nil
}
