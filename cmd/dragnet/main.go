// Command dragnet investigates a person across public sources and scores
// how confidently each finding refers to them.
//
// Usage:
//
//	dragnet investigate "John Smith" --city Springfield --state IL
//	dragnet correlate findings.json --subject-file subject.yaml
//	dragnet sources
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/codeGROOVE-dev/dragnet/pkg/cli"
)

func main() {
	// A missing .env is the normal case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
