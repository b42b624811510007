// cmd/promptlab/main.go
package main

import (
	promptlab "github.com/mwiater/promptlab/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = promptlab.SetVersionInfo
	executeCmd     = promptlab.Execute
)

// main injects build metadata and hands control to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
