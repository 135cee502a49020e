package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dpax/linkedin-feed/internal/app"
)

func main() {
	slog.SetDefault(app.Logger())

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
