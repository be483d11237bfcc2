// Package main is the launcher. It provisions the workspace next to the
// binary on first run and then starts eda-service inside it.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsamuelsen/eda-panel/internal/bootstrap"
	"github.com/jsamuelsen/eda-panel/internal/platform/config"
	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		if code == 0 {
			code = 1
		}
	}

	os.Exit(code)
}

func run() (int, error) {
	exe, err := bootstrap.ResolveExecutable(os.Executable)
	if err != nil {
		return 1, err
	}

	cfg, err := config.LoadFrom(filepath.Dir(exe), "")
	if err != nil {
		return 1, fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  "pretty",
		Service: "eda-launcher",
		Version: cfg.App.Version,
	})

	launcher := bootstrap.New(bootstrap.Config{
		Root:     cfg.Workspace.Root,
		Manifest: cfg.Workspace.Manifest,
		Entry:    cfg.Workspace.Entry,
	}, logger, bootstrap.WithExecutable(func() (string, error) { return exe, nil }))

	// Signals reach the child through the runner.
	res, err := launcher.Run(context.Background(), os.Args[1:]...)
	if err != nil {
		return res.ExitCode, err
	}

	return res.ExitCode, nil
}
