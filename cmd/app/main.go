package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/fx"

	"github.com/haecker-felix/hebbot/internal/app"
	"github.com/haecker-felix/hebbot/pkg/buildinfo"
)

func main() {
	showVersion := pflag.BoolP("version", "v", false, "print version information and exit")
	pflag.Parse()

	if *showVersion {
		info := buildinfo.Read()
		fmt.Printf("hebbot %s (commit %s, built %s, %s)\n", info.Version, info.Commit, info.Date, info.Go)
		os.Exit(0)
	}

	fx.New(app.CreateApp()).Run()
}
