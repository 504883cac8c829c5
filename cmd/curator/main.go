package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Exit codes: 1 for fatal errors (bad config, unreachable server, held
// lock), 2 when the run finished but some collections did not converge.
func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errRunFailed) {
		os.Exit(2)
	}
	os.Exit(1)
}
