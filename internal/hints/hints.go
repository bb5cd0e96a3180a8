// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"strconv"
	"strings"

	"github.com/alnah/go-md2site/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForConfigNotFound returns a hint for a missing configuration file.
func ForConfigNotFound(path string) string {
	return format("check the --config path " + strconv.Quote(path) + " or drop the flag to use <input>/site.yaml")
}

// ForInputDirectory returns a hint for an unusable input directory.
func ForInputDirectory() string {
	return format("the input directory holds posts/ and optionally templates/, static/ and site.yaml")
}

// ForOutputDirectory returns a hint for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForStyleNotFound returns hints for unknown highlight styles.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForListen returns hints for a server that cannot bind its port.
// Inside a container the port must also be published.
func ForListen(port int) string {
	hints := []string{"use --port to pick a port other than " + strconv.Itoa(port)}
	if IsInContainer() {
		hints = append(hints, "publish the port with docker run -p")
	}
	return formatHints(hints)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
