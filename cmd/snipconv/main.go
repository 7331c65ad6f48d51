package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/klauern/snipconv/internal/cli"
	"github.com/klauern/snipconv/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Run(ctx, os.Args)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, ui.StatusError(fmt.Sprintf("Error: %v", err)))
}
