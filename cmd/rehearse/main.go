package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/haven-sec/rehearse/internal/types"
)

// Exit codes.
const (
	exitSuccess = 0
	exitError   = 1
)

func main() {
	ctx := context.Background()

	if err := Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)

		var rerr *types.Error
		if errors.As(err, &rerr) && rerr.Retryable {
			fmt.Fprintln(os.Stderr, "This error may be transient; retrying the command can succeed.")
		}
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
