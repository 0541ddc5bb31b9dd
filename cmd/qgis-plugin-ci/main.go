package main

import (
	"qgispluginci/internal/cli"
	_ "qgispluginci/internal/validate/rules"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
