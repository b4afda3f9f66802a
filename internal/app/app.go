package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dshills/revstack/internal/config"
	"github.com/dshills/revstack/internal/history"
	"github.com/dshills/revstack/internal/propedit"
	"github.com/dshills/revstack/internal/script"
	"github.com/dshills/revstack/internal/telemetry"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// DocumentPath is the JSON document to edit. Empty starts from {}.
	DocumentPath string

	// ScriptPath is the Lua edit script.
	ScriptPath string

	// OutputPath receives the edited document. Empty writes to Stdout.
	OutputPath string

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Application owns one document, its history and the script runtime.
type Application struct {
	opts   Options
	config config.Config
	logger *zap.Logger

	registry *prometheus.Registry
	stack    *history.Stack
	editor   *propedit.Editor
	state    *script.State

	shutdownOnce sync.Once
}

// New loads configuration and the document and builds every component.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{opts: opts}
	if err := app.bootstrap(ctx); err != nil {
		app.Shutdown()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	return app, nil
}

func (app *Application) bootstrap(ctx context.Context) error {
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return &OperationError{Op: "load config", Target: app.opts.ConfigPath, Err: err}
	}
	app.config = cfg

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	app.logger = logger

	stackOpts := []history.Option{
		history.WithLogger(logger),
		history.WithStrictOwnership(cfg.History.StrictOwnership),
		history.WithObserver(telemetry.NewLogObserver(logger)),
	}
	if cfg.Metrics.Enabled {
		app.registry = prometheus.NewRegistry()
		metrics, err := telemetry.NewMetrics(app.registry)
		if err != nil {
			return err
		}
		stackOpts = append(stackOpts, history.WithObserver(metrics))
	}

	stack, err := history.NewStack(cfg.History.Capacity, stackOpts...)
	if err != nil {
		return err
	}
	app.stack = stack

	doc, err := app.loadDocument()
	if err != nil {
		return err
	}
	app.editor = propedit.NewEditor(doc, stack)

	app.state = script.NewState(app.editor,
		script.WithContext(history.WithOwner(ctx, "script")),
		script.WithLogger(logger.Named("script")))

	logger.Debug("application initialized",
		zap.Int("capacity", cfg.History.Capacity),
		zap.Bool("metrics", cfg.Metrics.Enabled))
	return nil
}

func (app *Application) loadDocument() (*propedit.Document, error) {
	if app.opts.DocumentPath == "" {
		return propedit.NewDocument(nil)
	}
	raw, err := os.ReadFile(app.opts.DocumentPath)
	if err != nil {
		return nil, &OperationError{Op: "read document", Target: app.opts.DocumentPath, Err: err}
	}
	doc, err := propedit.NewDocument(raw)
	if err != nil {
		return nil, &OperationError{Op: "parse document", Target: app.opts.DocumentPath, Err: err}
	}
	return doc, nil
}

// Stack returns the history.
func (app *Application) Stack() *history.Stack {
	return app.stack
}

// Editor returns the document editor.
func (app *Application) Editor() *propedit.Editor {
	return app.editor
}

// Registry returns the metrics registry, or nil when metrics are disabled.
func (app *Application) Registry() *prometheus.Registry {
	return app.registry
}

// Run executes the script, writes the document and prints a summary of
// the history to Stderr.
func (app *Application) Run() error {
	if app.opts.ScriptPath == "" {
		return ErrNoScript
	}
	if err := app.state.DoFile(app.opts.ScriptPath); err != nil {
		return &OperationError{Op: "run script", Target: app.opts.ScriptPath, Err: err}
	}
	if err := app.writeDocument(); err != nil {
		return err
	}
	return app.writeSummary(app.opts.Stderr)
}

func (app *Application) writeDocument() error {
	data := append(app.editor.Document().Bytes(), '\n')
	if app.opts.OutputPath == "" {
		_, err := app.opts.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(app.opts.OutputPath, data, 0o644); err != nil {
		return &OperationError{Op: "write document", Target: app.opts.OutputPath, Err: err}
	}
	return nil
}

func (app *Application) writeSummary(w io.Writer) error {
	fmt.Fprintf(w, "history: %d/%d transactions, position %d\n",
		app.stack.Len(), app.stack.Capacity(), app.stack.Position())
	for i, t := range app.stack.Transactions() {
		marker := " "
		if i < app.stack.Position() {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %-20s %d operation(s)\n", marker, t.Name(), t.Len())
	}

	if app.registry == nil {
		return nil
	}
	families, err := app.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), labels, m.GetCounter().GetValue())
		}
	}
	return nil
}

// Shutdown releases the script runtime and flushes the logger.
// Safe to call multiple times.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		if app.state != nil {
			_ = app.state.Close()
		}
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	})
}
