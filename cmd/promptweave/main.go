package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/vk/promptweave/internal/app"
	"github.com/vk/promptweave/internal/cli"
)

func main() {
	// Minimal logger until the configured one takes over.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Secrets arrive via the environment; a .env file is a convenience
	// for local runs and its absence is not an error.
	_ = godotenv.Load()

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run keeps the main flow testable and maps every failure to an error.
func run(outW io.Writer, args []string) error {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	req, err := readRequest(opts.RequestPath)
	if err != nil {
		return err
	}

	application, err := app.New(os.Stderr, opts)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if opts.DryRun {
		g, warnings, err := application.Build(ctx, req)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		return writeJSON(outW, g)
	}

	resp, err := application.Handle(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(outW, resp)
}

func readRequest(path string) (*app.Request, error) {
	if path == "-" {
		return app.ParseRequest(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening request: %w", err)
	}
	defer f.Close()
	return app.ParseRequest(f)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
