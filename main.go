package main

import (
	"fmt"
	"os"

	"github.com/nconklindev/freightmap/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	build := commands.BuildInfo{Version: version, Commit: commit, Date: date}
	if err := commands.Execute(build); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
