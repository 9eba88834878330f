package idea

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// RuntimeContext is the result of detecting the IDE hosting this process.
type RuntimeContext struct {
	Product   string
	Hosted    bool
	EnvVars   map[string]string
	Trace     []string
	ConfigDir string
}

// maxAncestors bounds the walk; JetBrains launchers sit well within this.
const maxAncestors = 32

// DetectRuntime walks the process tree looking for a JetBrains IDE ancestor.
// Detection is best-effort: inspection failures fall back to environment
// variables, and an empty Product means no IDE was identified.
func DetectRuntime() RuntimeContext {
	ctx := RuntimeContext{EnvVars: jetbrainsEnv()}
	_, ctx.Hosted = os.LookupEnv("PYCHARM_HOSTED")

	p, err := process.NewProcess(int32(os.Getpid()))
	for depth := 0; err == nil && p != nil && depth < maxAncestors; depth++ {
		token := processToken(p)
		ctx.Trace = append(ctx.Trace, token)

		if product, prefix := productForToken(token); product != "" {
			ctx.Product = product
			ctx.ConfigDir = NewDiscovery().LatestConfigDir(prefix)
			return ctx
		}

		p, err = p.Parent()
	}

	if ctx.Product == "" && (ctx.Hosted || len(ctx.EnvVars) > 0) {
		ctx.Product = "JetBrains (unknown product)"
	}
	return ctx
}

// SDKTablePath returns the global jdk.table.xml of the detected IDE, whether
// or not the file exists yet. Empty when no IDE config dir was found.
func (c RuntimeContext) SDKTablePath() string {
	if c.ConfigDir == "" {
		return ""
	}
	return filepath.Join(c.ConfigDir, "options", "jdk.table.xml")
}

// InIDE reports whether a concrete JetBrains product was identified.
func (c RuntimeContext) InIDE() bool {
	return c.Product != "" && c.Product != "JetBrains (unknown product)"
}

func processToken(p *process.Process) string {
	if exe, err := p.Exe(); err == nil && exe != "" {
		return strings.ToLower(exe)
	}
	if name, err := p.Name(); err == nil && name != "" {
		return strings.ToLower(name)
	}
	if cmdline, err := p.Cmdline(); err == nil {
		return strings.ToLower(cmdline)
	}
	return ""
}

func productForToken(token string) (product, dirPrefix string) {
	switch {
	case strings.Contains(token, "pycharm"):
		return "PyCharm", "PyCharm"
	case strings.Contains(token, "idea"), strings.Contains(token, "intellij"):
		return "IntelliJ IDEA", "IntelliJIdea"
	}
	return "", ""
}

func jetbrainsEnv() map[string]string {
	vars := map[string]string{}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "PYCHARM_") {
			if k, v, ok := strings.Cut(kv, "="); ok {
				vars[k] = v
			}
		}
	}
	return vars
}
