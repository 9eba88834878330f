package idea

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Installation describes one JetBrains IDE found on this machine.
type Installation struct {
	Product    string
	VersionDir string
	ConfigDir  string
	SDKTable   string
}

// Discovery enumerates per-user JetBrains configuration directories.
type Discovery struct {
	goos string
	home string
}

func NewDiscovery() *Discovery {
	home, _ := os.UserHomeDir()
	return &Discovery{goos: runtime.GOOS, home: home}
}

// NewDiscoveryAt pins the OS and home directory, for tests.
func NewDiscoveryAt(goos, home string) *Discovery {
	return &Discovery{goos: goos, home: home}
}

// ConfigBase returns the JetBrains configuration base directory for the
// platform, or "" when it cannot be determined.
func (d *Discovery) ConfigBase() string {
	switch d.goos {
	case "darwin":
		return filepath.Join(d.home, "Library", "Application Support", "JetBrains")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "JetBrains")
		}
		return filepath.Join(d.home, "AppData", "Roaming", "JetBrains")
	case "linux":
		newStyle := filepath.Join(d.home, ".config", "JetBrains")
		if _, err := os.Stat(newStyle); err == nil {
			return newStyle
		}
		// Pre-2020 layouts keep .IntelliJIdea* directly under $HOME.
		return d.home
	}
	return ""
}

// Installations lists every IntelliJ IDEA and PyCharm configuration directory
// under the platform base, newest version first per product.
func (d *Discovery) Installations() []Installation {
	base := d.ConfigBase()
	if base == "" {
		return nil
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}

	var found []Installation
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		product := productForDir(entry.Name())
		if product == "" {
			continue
		}
		configDir := filepath.Join(base, entry.Name())
		found = append(found, Installation{
			Product:    product,
			VersionDir: entry.Name(),
			ConfigDir:  configDir,
			SDKTable:   filepath.Join(configDir, "options", "jdk.table.xml"),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Product != found[j].Product {
			return found[i].Product < found[j].Product
		}
		return found[i].VersionDir > found[j].VersionDir
	})
	return found
}

// LatestConfigDir returns the newest configuration directory whose name
// starts with prefix (e.g. "PyCharm"), or "" when none exists.
func (d *Discovery) LatestConfigDir(prefix string) string {
	var candidates []Installation
	for _, install := range d.Installations() {
		if strings.HasPrefix(install.VersionDir, prefix) {
			candidates = append(candidates, install)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].VersionDir > candidates[j].VersionDir
	})
	return candidates[0].ConfigDir
}

func productForDir(name string) string {
	switch {
	case strings.HasPrefix(name, "PyCharmCE"):
		return "PyCharm Community"
	case strings.HasPrefix(name, "PyCharm"):
		return "PyCharm Professional"
	case strings.HasPrefix(name, "IntelliJIdea"):
		return "IntelliJ IDEA"
	case name == "IntelliJ":
		return "IntelliJ IDEA (Generic)"
	}
	return ""
}
