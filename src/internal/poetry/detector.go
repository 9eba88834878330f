// Package poetry probes the Poetry CLI for the active project environment.
package poetry

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"ideset/src/internal/telemetry"
)

var (
	// ErrPoetryNotFound reports that the poetry binary is missing from PATH.
	ErrPoetryNotFound = errors.New("poetry is not available; make sure it is installed and in your PATH")
	// ErrInterpreterNotFound reports that poetry is installed but no usable
	// interpreter could be located for the current project.
	ErrInterpreterNotFound = errors.New("no Python interpreter found; run `poetry install` inside the project first")
)

// Env describes the provisioned Poetry environment.
type Env struct {
	Interpreter string
	Name        string
}

// Available reports whether the poetry binary responds on PATH.
func Available() bool {
	return exec.Command("poetry", "--version").Run() == nil
}

// InterpreterPath locates the Python interpreter of the active Poetry
// environment. It asks `poetry env info --path` first and falls back to
// `poetry run which python` (or `where` on Windows).
func InterpreterPath() (string, error) {
	if out, err := exec.Command("poetry", "env", "info", "--path").Output(); err == nil {
		exe := interpreterInEnv(strings.TrimSpace(string(out)), runtime.GOOS)
		if isRegularFile(exe) {
			return exe, nil
		}
	}

	locator := []string{"run", "which", "python"}
	if runtime.GOOS == "windows" {
		locator = []string{"run", "where", "python"}
	}
	if out, err := exec.Command("poetry", locator...).Output(); err == nil {
		exe := firstLine(string(out))
		if isRegularFile(exe) {
			return exe, nil
		}
	}

	if !Available() {
		return "", ErrPoetryNotFound
	}
	return "", ErrInterpreterNotFound
}

// EnvironmentInfo resolves both the interpreter path and the environment
// display name. The name comes from `poetry env info`; when that yields
// nothing, it is derived from the virtualenv directory name.
func EnvironmentInfo() (env Env, retErr error) {
	done := telemetry.StartSpan("poetry.environment_info")
	defer func() {
		fields := []any{"status", "ok", "env", env.Name}
		if retErr != nil {
			fields[1] = "error"
			fields = append(fields, "error", retErr.Error())
		}
		done(fields...)
	}()

	interpreter, err := InterpreterPath()
	if err != nil {
		return Env{}, err
	}

	if out, err := exec.Command("poetry", "env", "info").Output(); err == nil {
		if name := parseEnvName(string(out)); name != "" {
			return Env{Interpreter: interpreter, Name: name}, nil
		}
	}

	return Env{Interpreter: interpreter, Name: envNameFromInterpreter(interpreter)}, nil
}

// PythonVersion runs the interpreter and returns its major.minor version.
func PythonVersion(interpreter string) (string, error) {
	out, err := exec.Command(interpreter, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to run %s --version: %w", interpreter, err)
	}
	version, err := parsePythonVersion(string(out))
	if err != nil {
		return "", fmt.Errorf("%s: %w", interpreter, err)
	}
	return version, nil
}

// InProject reports whether dir holds a pyproject.toml with a [tool.poetry]
// table. Unreadable or malformed pyproject files count as "not a Poetry
// project" rather than failing.
func InProject(dir string) bool {
	var doc struct {
		Tool struct {
			Poetry map[string]any `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.DecodeFile(filepath.Join(dir, "pyproject.toml"), &doc); err != nil {
		return false
	}
	return doc.Tool.Poetry != nil
}

// interpreterInEnv maps a virtualenv root to its python executable for the
// given GOOS.
func interpreterInEnv(envDir, goos string) string {
	if envDir == "" {
		return ""
	}
	if goos == "windows" {
		return filepath.Join(envDir, "Scripts", "python.exe")
	}
	return filepath.Join(envDir, "bin", "python")
}

// parseEnvName pulls the environment name out of `poetry env info` output,
// which lists it as a "Name: <value>" line.
func parseEnvName(out string) string {
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "Name:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// envNameFromInterpreter falls back to the virtualenv directory name, e.g.
// /venvs/myproj-abc123-py3.12/bin/python -> myproj-abc123-py3.12.
func envNameFromInterpreter(interpreter string) string {
	return filepath.Base(filepath.Dir(filepath.Dir(interpreter)))
}

// parsePythonVersion reduces "Python 3.12.1" to "3.12".
func parsePythonVersion(out string) (string, error) {
	line := firstLine(out)
	rest, ok := strings.CutPrefix(line, "Python ")
	if !ok {
		return "", fmt.Errorf("unexpected version output %q", line)
	}
	parts := strings.Split(strings.TrimSpace(rest), ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1], nil
	}
	return strings.TrimSpace(rest), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
