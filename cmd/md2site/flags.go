package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// cliFlags holds every command line flag.
type cliFlags struct {
	config      string
	workers     int
	serve       bool
	port        int
	style       string
	quiet       bool
	verbose     bool
	jsonLog     bool
	noColor     bool
	version     bool
	printConfig bool
	help        bool

	// set records which flags were given explicitly, so that only those
	// override the configuration file.
	set map[string]bool
}

// parseFlags parses args (without the program name) and returns the
// positional arguments.
func parseFlags(args []string, stderr io.Writer) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("md2site", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	f := &cliFlags{set: make(map[string]bool)}
	fs.StringVarP(&f.config, "config", "c", "", "config file path (default: <input>/site.yaml)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "posts built in parallel (0 = one per CPU)")
	fs.BoolVarP(&f.serve, "serve", "s", false, "serve the output after building")
	fs.IntVar(&f.port, "port", 0, "development server port")
	fs.StringVar(&f.style, "style", "", "chroma highlight style")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output")
	fs.BoolVar(&f.jsonLog, "log-json", false, "log JSON lines instead of console output")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored log output")
	fs.BoolVar(&f.version, "version", false, "show version information")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the effective configuration and exit")
	fs.BoolVarP(&f.help, "help", "h", false, "show this help")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	return f, fs.Args(), nil
}
