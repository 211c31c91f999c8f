// Package main provides the ccstatusline CLI.
//
// ccstatusline renders a single status line with live usage and
// billing metrics for a Claude Code session. It is designed to be
// invoked as a statusline hook: Claude Code pipes session context as
// JSON on stdin and prints whatever comes back on stdout.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("ccstatusline %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		// Default mode: render one status line, reading hook JSON from
		// stdin when piped.
		return runStatusline(*configPath)
	}

	switch args[0] {
	case "test":
		return runTest(*configPath)
	case "watch":
		return runWatch(*configPath)
	case "version":
		fmt.Printf("ccstatusline %s\n", version)
		return nil
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// showUsage prints command usage information.
func showUsage() error {
	fmt.Println(`ccstatusline - usage statusline for Claude Code

Usage:
  ccstatusline [flags]            Render one status line (hook JSON on stdin)
  ccstatusline test               Render using the most recent transcript
  ccstatusline watch              Re-render as transcripts change
  ccstatusline version            Show version

Flags:
  -config string   Path to configuration file
  -version         Show version information`)
	return nil
}
