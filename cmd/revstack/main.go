// Package main is the entry point for revstack, a scripted JSON editor
// with transactional undo and redo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/revstack/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	// Cancel the running script on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.DocumentPath, "doc", "", "JSON document to edit (default {})")
	flag.StringVar(&opts.ScriptPath, "script", "", "Lua edit script")
	flag.StringVar(&opts.ScriptPath, "s", "", "Lua edit script (shorthand)")
	flag.StringVar(&opts.OutputPath, "out", "", "Write the edited document here instead of stdout")
	flag.StringVar(&opts.OutputPath, "o", "", "Write the edited document here (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "revstack - scripted JSON editing with undo/redo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: revstack [options] -script edit.lua [document.json]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  revstack -s edit.lua doc.json           Print the edited document\n")
		fmt.Fprintf(os.Stderr, "  revstack -s edit.lua -o out.json doc.json\n")
		fmt.Fprintf(os.Stderr, "  REVSTACK_HISTORY_CAPACITY=50 revstack -s edit.lua\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("revstack %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// A positional argument names the document
	if opts.DocumentPath == "" && flag.NArg() > 0 {
		opts.DocumentPath = flag.Arg(0)
	}

	if opts.ScriptPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -script is required\n")
		flag.Usage()
		os.Exit(2)
	}

	return opts
}
