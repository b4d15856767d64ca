package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vectra-ai-research/halberd/cmd/halberd/internal"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			if globalFlags.Verbose {
				fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			} else {
				fmt.Fprintln(os.Stderr, "Run with --verbose for stack trace")
			}
			os.Exit(internal.ExitError)
		}
	}()

	ctx := context.Background()

	if err := Execute(ctx); err != nil {
		os.Exit(internal.HandleError(rootCmd, err))
	}

	os.Exit(internal.ExitSuccess)
}
