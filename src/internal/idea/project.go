// Package idea locates JetBrains project and per-user IDE configuration.
package idea

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DirName is the per-project settings directory JetBrains IDEs create.
	DirName = ".idea"
	// MiscFileName holds the interpreter configuration inside DirName.
	MiscFileName = "misc.xml"
)

// ErrProjectDirNotFound reports a project root without a usable .idea
// directory.
var ErrProjectDirNotFound = errors.New(".idea directory not found")

// FindProjectDir returns the .idea directory under root. The directory must
// exist and actually be a directory.
func FindProjectDir(root string) (string, error) {
	ideaDir := filepath.Join(root, DirName)
	info, err := os.Stat(ideaDir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w in %s; open the project in IntelliJ IDEA or PyCharm once", ErrProjectDirNotFound, root)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s exists but is not a directory", ErrProjectDirNotFound, ideaDir)
	}
	return ideaDir, nil
}

// ProjectName resolves the display name of the project: the .idea/.name file
// when present, the project directory name otherwise.
func ProjectName(ideaDir string) string {
	if data, err := os.ReadFile(filepath.Join(ideaDir, ".name")); err == nil {
		if name := strings.TrimSpace(string(data)); name != "" {
			return name
		}
	}
	return filepath.Base(filepath.Dir(ideaDir))
}

// MiscPath returns the misc.xml path for ideaDir. The file may not exist yet.
func MiscPath(ideaDir string) string {
	return filepath.Join(ideaDir, MiscFileName)
}

// ValidateStructure reports whether root looks like a JetBrains project. An
// existing .idea directory is enough; the marker files are informational.
func ValidateStructure(root string) bool {
	_, err := FindProjectDir(root)
	return err == nil
}

// IsPythonProject guesses whether the project is configured for Python by
// scanning the usual .idea files for Python markers. A fresh project with no
// markers yet still counts as Python so it can be set up.
func IsPythonProject(ideaDir string) bool {
	if data, err := os.ReadFile(filepath.Join(ideaDir, "modules.xml")); err == nil {
		if strings.Contains(string(data), `type="PYTHON_MODULE"`) {
			return true
		}
	}
	if data, err := os.ReadFile(filepath.Join(ideaDir, "workspace.xml")); err == nil {
		if containsAny(string(data), "PythonLanguage", "Python SDK", "PyInterpreter", "python-ce") {
			return true
		}
	}
	if data, err := os.ReadFile(filepath.Join(ideaDir, MiscFileName)); err == nil {
		content := string(data)
		if strings.Contains(content, "Python SDK") || strings.Contains(strings.ToLower(content), "python") {
			return true
		}
		return false
	}
	return true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
