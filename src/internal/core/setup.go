// Package core wires environment probing, project discovery and the misc.xml
// merge into the single setup operation.
package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"ideset/src/internal/idea"
	"ideset/src/internal/miscxml"
	"ideset/src/internal/poetry"
	"ideset/src/internal/telemetry"
)

// ErrCorruptConfig reports an existing misc.xml that failed the pre-flight
// validation gate. The file is never auto-repaired.
var ErrCorruptConfig = errors.New("existing misc.xml appears to be corrupted; fix or delete it and retry")

// Options controls one setup run.
type Options struct {
	ProjectPath string
	DryRun      bool
	Force       bool
	Backup      bool
}

// Result describes what a setup run did (or, for dry runs, would do).
type Result struct {
	Interpreter string
	Environment string
	ProjectName string
	ConfigFile  string
	SDKName     string
	Previous    string
	Updated     bool
}

// EnvironmentProbe abstracts the Poetry CLI so Setup can be exercised without
// Poetry installed.
type EnvironmentProbe interface {
	Available() bool
	EnvironmentInfo() (poetry.Env, error)
	InProject(dir string) bool
}

// Setup performs the end-to-end configuration run.
type Setup struct {
	Probe EnvironmentProbe
	Warnf func(format string, a ...any)
}

// NewSetup returns a Setup backed by the real Poetry CLI, warning via pterm.
func NewSetup() *Setup {
	return &Setup{
		Probe: poetryProbe{},
		Warnf: func(format string, a ...any) { pterm.Warning.Printf(format+"\n", a...) },
	}
}

// Run resolves the Poetry environment and points the project's misc.xml at
// it. Warnings are advisory; errors are terminal.
func (s *Setup) Run(opts Options) (res Result, retErr error) {
	done := telemetry.StartSpan("core.setup", "project", opts.ProjectPath, "dry_run", opts.DryRun)
	defer func() {
		fields := []any{"status", "ok", "updated", res.Updated}
		if retErr != nil {
			fields[1] = "error"
			fields = append(fields, "error", retErr.Error())
		}
		done(fields...)
	}()

	if !s.Probe.Available() {
		return Result{}, poetry.ErrPoetryNotFound
	}
	if !s.Probe.InProject(opts.ProjectPath) {
		s.Warnf("No pyproject.toml with a [tool.poetry] table found in %s", opts.ProjectPath)
	}

	env, err := s.Probe.EnvironmentInfo()
	if err != nil {
		return Result{}, err
	}

	ideaDir, err := idea.FindProjectDir(opts.ProjectPath)
	if err != nil {
		return Result{}, err
	}
	if !idea.IsPythonProject(ideaDir) {
		s.Warnf("Project does not appear to be configured for Python")
	}

	res = Result{
		Interpreter: env.Interpreter,
		Environment: env.Name,
		ProjectName: idea.ProjectName(ideaDir),
		ConfigFile:  idea.MiscPath(ideaDir),
		SDKName:     miscxml.SDKName(env.Name),
	}

	current, configured := miscxml.CurrentInterpreter(res.ConfigFile)
	res.Previous = current

	if !opts.Force && configured && current == res.SDKName {
		return res, nil
	}
	res.Updated = true

	// The gate applies to dry runs too, so both modes agree on whether the
	// file could actually be updated.
	if _, err := os.Stat(res.ConfigFile); err == nil && !miscxml.Validate(res.ConfigFile) {
		return Result{}, fmt.Errorf("%w: %s", ErrCorruptConfig, res.ConfigFile)
	}

	if opts.DryRun {
		return res, nil
	}

	if err := miscxml.Update(res.ConfigFile, res.SDKName, opts.Backup); err != nil {
		return Result{}, err
	}
	return res, nil
}

type poetryProbe struct{}

func (poetryProbe) Available() bool { return poetry.Available() }

func (poetryProbe) EnvironmentInfo() (poetry.Env, error) { return poetry.EnvironmentInfo() }

func (poetryProbe) InProject(dir string) bool { return poetry.InProject(dir) }
