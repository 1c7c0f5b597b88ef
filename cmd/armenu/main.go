// Package main provides the armenu CLI application.
//
// armenu manages restaurants of the AR menu platform and lets a logged in
// restaurant record short videos of its dishes, which the backend turns
// into 3D models for the menu.
package main

import (
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
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	defer a.cleanup()

	return newRootCmd(a).Execute()
}
