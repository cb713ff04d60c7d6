package internal

import (
	"io"
	"os"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	stdout  io.Writer
	logOut  io.Writer
	version string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStdout sets where reports are written. Defaults to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

// WithLogOutput sets where structured logs are written. Defaults to os.Stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// ScanParams selects how a scan is run and reported.
type ScanParams struct {
	// JSON writes the machine-readable report instead of the console one.
	JSON bool
	// EmitFixes, when set, is the file the YAML fix table is written to.
	EmitFixes string
	// UseIndex reads references through the SQLite index instead of
	// parsing every document.
	UseIndex bool
	// FailOnCritical makes the scan return ErrCriticalIssues when any
	// critical issue is found.
	FailOnCritical bool
}

// FixParams selects the entries a fix run applies.
type FixParams struct {
	// Table is a YAML fix table file.
	Table string
	// File and Replacements ("old=>new") build ad-hoc entries for one document.
	File         string
	Replacements []string
	DryRun       bool
}

func newApplication(opts []Option) *application {
	app := &application{
		stdout:  os.Stdout,
		logOut:  os.Stderr,
		version: "dev",
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}
