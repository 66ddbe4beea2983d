package main

import "github.com/go-targz/targz/cmd"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// main starts the targz cli
func main() {
	cmd.Run(version, commit, date)
}
