package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2site [flags] <input-dir> <output-dir>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build a static site from the markdown posts of <input-dir>.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input layout:")
	fmt.Fprintln(w, "  posts/         <id>.md files or <id>/index.md directories")
	fmt.Fprintln(w, "  templates/     index.html, post.html, tag.html overrides (optional)")
	fmt.Fprintln(w, "  static/        copied to <output-dir>/static (optional)")
	fmt.Fprintln(w, "  site.yaml      configuration (optional)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build:")
	fmt.Fprintln(w, "  -c, --config <path>       Config file (default: <input-dir>/site.yaml)")
	fmt.Fprintln(w, "  -w, --workers <n>         Posts built in parallel (0 = one per CPU)")
	fmt.Fprintln(w, "      --style <name>        Chroma highlight style")
	fmt.Fprintln(w, "      --print-config        Print the effective configuration and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve:")
	fmt.Fprintln(w, "  -s, --serve               Serve <output-dir> after building")
	fmt.Fprintln(w, "      --port <n>            Server port (default: 8000)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug output")
	fmt.Fprintln(w, "      --log-json            Log JSON lines")
	fmt.Fprintln(w, "      --no-color            Disable colored logs")
	fmt.Fprintln(w, "      --version             Show version information")
	fmt.Fprintln(w, "  -h, --help                Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0  success")
	fmt.Fprintln(w, "  1  unexpected error")
	fmt.Fprintln(w, "  2  invalid flags or configuration")
	fmt.Fprintln(w, "  3  file system error")
}
