package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-drift/widgethost/cmd/widgethost/internal/config"
	"github.com/go-drift/widgethost/pkg/deps"
	"github.com/go-drift/widgethost/pkg/dom"
	"github.com/go-drift/widgethost/pkg/errors"
	"github.com/go-drift/widgethost/pkg/loop"
	"github.com/go-drift/widgethost/pkg/renderers/canvas"
	"github.com/go-drift/widgethost/pkg/sizing"
	"github.com/go-drift/widgethost/pkg/widget"
	"github.com/go-drift/widgethost/pkg/widgethost"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// defaultSettle is how long the loop runs after the last trigger so
// debounced passes and deferred work complete.
const defaultSettle = 20 * time.Millisecond

// renderers maps the names accepted in widgethost.yaml to definitions.
var renderers = map[string]func(*zap.Logger) widget.Definition{
	canvas.Name: func(l *zap.Logger) widget.Definition {
		return canvas.Definition(canvas.WithLogger(l))
	},
}

// page is a loaded document with the host machinery around it.
type page struct {
	cfg    *config.Resolved
	logger *zap.Logger
	doc    *dom.Document
	deps   *deps.Resolver
	loop   *loop.Loop
	host   *widgethost.Host
}

// pageFlags are the flags shared by commands that load a page.
type pageFlags struct {
	output   string
	location string
	settle   time.Duration
}

// parsePageFlags splits args into positional arguments and page flags.
func parsePageFlags(args []string) ([]string, pageFlags, error) {
	flags := pageFlags{settle: defaultSettle}
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-o", "--output", "--location", "--settle":
			if i+1 >= len(args) {
				return nil, flags, fmt.Errorf("%s requires a value", arg)
			}
			val := args[i+1]
			i++
			switch arg {
			case "--location":
				flags.location = val
			case "--settle":
				d, err := time.ParseDuration(val)
				if err != nil {
					return nil, flags, fmt.Errorf("invalid --settle: %w", err)
				}
				flags.settle = d
			default:
				flags.output = val
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, flags, fmt.Errorf("unknown flag %q", arg)
			}
			positional = append(positional, arg)
		}
	}
	return positional, flags, nil
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// loadPage resolves the config and parses the HTML file at path. Errors
// reported asynchronously from here on are logged.
func loadPage(path string, flags pageFlags) (*page, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	errors.SetHandler(&errors.LogHandler{Logger: logger, Verbose: cfg.LogLevel <= zapcore.DebugLevel})

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	location := flags.location
	if location == "" {
		location = "file://" + path
		if cfg.Variant == sizing.Viewer {
			location += "?viewer_pane=1"
		}
	}
	doc, err := dom.Parse(f,
		dom.WithViewport(cfg.Viewport.Width, cfg.Viewport.Height),
		dom.WithLocation(location))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	logger.Debug("loaded page",
		zap.String("path", path),
		zap.String("config", cfg.Path),
		zap.Stringer("variant", cfg.Variant))
	return &page{
		cfg:    cfg,
		logger: logger,
		doc:    doc,
		deps:   deps.NewResolver(doc, deps.WithLogger(logger)),
		loop:   loop.New(nil),
	}, nil
}

// attach creates the host and registers the configured renderers. Globals
// the host probes for must be set on the document before attach.
func (p *page) attach() error {
	host, err := widgethost.New(p.doc,
		widgethost.WithLogger(p.logger),
		widgethost.WithLoop(p.loop),
		widgethost.WithDependencyResolver(p.deps),
		widgethost.WithVariant(p.cfg.Variant),
		widgethost.WithContainerID(p.cfg.ContainerID),
		widgethost.WithTracking(p.cfg.Tracking, p.cfg.PollInterval))
	if err != nil {
		return err
	}
	p.host = host

	for _, name := range p.cfg.Renderers {
		mk, ok := renderers[name]
		if !ok {
			return fmt.Errorf("unknown renderer %q (available: %s)", name, strings.Join(availableRenderers(), ", "))
		}
		if _, err := host.RegisterRenderer(mk(p.logger)); err != nil {
			return err
		}
	}
	return nil
}

func availableRenderers() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ready fires the document-ready trigger, on the loop when deferred.
func (p *page) ready() error {
	if !p.cfg.DeferredReady {
		return p.host.Ready()
	}
	p.loop.Post(func() {
		if err := p.host.Ready(); err != nil {
			var we *errors.WidgetError
			if !stderrors.As(err, &we) {
				we = &errors.WidgetError{Op: "widgethost.Ready", Kind: errors.KindRender, Err: err}
			}
			errors.Report(we)
		}
	})
	return nil
}

// settle drives the loop for d.
func (p *page) settle(d time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	_ = p.loop.Run(ctx)
}

// write renders the document to path, or stdout when path is empty.
func (p *page) write(path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return p.doc.Render(w)
}
