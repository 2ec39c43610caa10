package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// An interrupted run command lands here; exit with the
		// conventional SIGINT code and keep stderr quiet.
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "shelver:", err)
		os.Exit(1)
	}
}
