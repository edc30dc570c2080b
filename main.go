// blue onboards SD-WAN routers over their console port.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blue/cmd"
	blueerr "blue/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx, os.Args[1:])
	cancel()
	if err != nil {
		if !blueerr.IsWarning(err) {
			fmt.Fprintf(os.Stderr, "blue: %v\n", err)
		}
		os.Exit(blueerr.ExitCode(err))
	}
}
