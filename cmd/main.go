package main

import (
	"fmt"
	"os"
)

// scorezk - CLI tool and API service for private credit scores
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
