package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/YuminosukeSato/carprice/cli"
	"github.com/YuminosukeSato/carprice/config"
)

const pathEnv = ".env"

func main() {
	if err := config.LoadDotEnv(pathEnv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(cli.Deps{})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		if cli.IsInterrupted(err) {
			fmt.Fprintln(os.Stderr, "\nExiting...")
			os.Exit(130)
		}
		os.Exit(1)
	}
}
