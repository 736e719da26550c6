package main

import (
	"os"

	"github.com/felixgeelhaar/flowgate/internal/infrastructure/cli"
)

// Set via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	os.Exit(run())
}

func run() int {
	if err := cli.Execute(); err != nil {
		return cli.ExitCode(err)
	}
	return 0
}
