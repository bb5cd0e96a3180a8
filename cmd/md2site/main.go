package main

import (
	"context"
	"fmt"
	"os"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args[1:], DefaultDeps()))
}

// runMain runs the command until completion or an interrupt and returns
// the process exit code.
func runMain(args []string, deps *Dependencies) int {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	err := run(ctx, args, deps)
	if err != nil {
		fmt.Fprintln(deps.Stderr, "error:", err)
	}
	return exitCodeFor(err)
}
