package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kerrors "github.com/HaPhanBaoMinh/kreport/internal/errors"
)

// overridden during build with ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newCommand(os.Stdout).Run(ctx, os.Args)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "kreport: %v\n", err)
		os.Exit(kerrors.ExitCode(err))
	}
}
