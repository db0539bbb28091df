package main

import (
	"os"

	"github.com/cainy/dockhand/cmd"
	"github.com/cainy/dockhand/pkg/version"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

func main() {
	version.Set(buildVersion, buildCommit, buildDate)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
