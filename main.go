package main

import (
	"os"

	"install-tool/cmd" // cobra commands; Execute returns the exit status
)

// main is the program entry point.
// It delegates to cmd.Execute() and exits with the status it returns.
//
// install-tool installs named developer tools ("programs") by resolving an
// OS-specific shell command for each one:
//   - Install commands and dependency lists come from command-line properties,
//     a YAML config file, resource directories, or the resources bundled into the binary
//   - The transitive dependencies of a program are installed first, each at most once
//   - Anything already on PATH is skipped, so repeated runs are idempotent
//
// The exit status is 0 on success, 1 when a program has no install command or
// a command could not be launched, and otherwise the exit code of the last
// install command that ran.
func main() {
	os.Exit(cmd.Execute())
}
