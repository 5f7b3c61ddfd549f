// Package main provides the playdb command line tool for building and
// inspecting B-tree files.
package main

import (
	"fmt"
	"io"
	"os"
)

// Output of every command; replaced in tests
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	exitCode := run(os.Args)
	os.Exit(exitCode)
}

// run executes the CLI and returns an exit code.
func run(args []string) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 1
	}

	switch args[1] {
	case "demo":
		return demoCmd(args[2:])
	case "insert":
		return insertCmd(args[2:])
	case "query":
		return queryCmd(args[2:])
	case "dump":
		return dumpCmd(args[2:])
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		fmt.Fprintln(stderr, "Run 'playdb help' for usage.")
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `playdb - B-tree index over a paged blob store

Usage:
  playdb <command> [options]

Commands:
  demo        Build a small in-memory tree and print it
  insert      Insert key/value pairs into a tree file
  query       Look up keys in a tree file
  dump        Print a tree file level by level

Use "playdb <command> -h" for more information about a command.
`)
}
