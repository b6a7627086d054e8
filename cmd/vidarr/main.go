// Package main is the entrypoint of Vidarr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vidarr/internal/cfg"
	"vidarr/internal/domain/setup"
	"vidarr/internal/utils/logging"
)

// init runs before the program begins.
func init() {
	if err := setup.InitCfgFilesDirs(); err != nil {
		fmt.Printf("Vidarr exiting with error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	if err := logging.SetupLogging(setup.LogFilePath, 0); err != nil {
		fmt.Printf("Vidarr exiting with error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cfg.InitCommands(); err != nil {
		logging.E("Failed to initialize commands: %v", err)
		os.Exit(1)
	}

	if err := cfg.ExecuteContext(ctx); err != nil {
		logging.E("%v", err)
		os.Exit(1)
	}
}
