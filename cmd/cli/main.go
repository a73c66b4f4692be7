package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kvolkov/gridci/internal/app"
	"github.com/kvolkov/gridci/internal/cli"
	"github.com/kvolkov/gridci/internal/yamlcfg"
)

// main is the entrypoint for the gridci application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean exit message to the user.
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("application startup panicked | %v", r)
			}
		}()

		// Instantiate the concrete YAML loader to pass to the app.
		loader := yamlcfg.NewLoader()
		gridciApp := app.NewApp(outW, appConfig, loader)
		runErr = gridciApp.Run(context.Background(), appConfig)
	}()

	return runErr
}
