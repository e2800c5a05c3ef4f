// Package cli turns command-line arguments into resolved app options.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/promptweave/internal/app"
)

// ExitError carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns populated options, a
// boolean indicating a clean early exit (help shown), or an ExitError.
func Parse(args []string, output io.Writer) (*app.Options, bool, error) {
	flagSet := flag.NewFlagSet("promptweave", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
promptweave - compile, validate and run content-generation graphs.

Usage:
  promptweave [options] [REQUEST_PATH]

Arguments:
  REQUEST_PATH
    Path to a JSON request document, or '-' for stdin.

Options:
`)
		flagSet.PrintDefaults()
	}

	requestFlag := flagSet.String("request", "", "Path to the request document.")
	rFlag := flagSet.String("r", "", "Path to the request document (shorthand).")
	configFlag := flagSet.String("config", "", "Path to an HCL config file.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Compile and validate, print the graph, do not submit.")
	inputDirFlag := flagSet.String("input-dir", "/workspace/ComfyUI/input", "Engine input directory (request paths are relative to it).")
	outputDirFlag := flagSet.String("output-dir", "/workspace/ComfyUI/output", "Engine output directory.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	requestPath := ""
	switch {
	case *requestFlag != "":
		requestPath = *requestFlag
	case *rFlag != "":
		requestPath = *rFlag
	case flagSet.NArg() > 0:
		requestPath = flagSet.Arg(0)
	}
	if requestPath == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &app.Options{
		ConfigPath:  *configFlag,
		RequestPath: requestPath,
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		DryRun:      *dryRunFlag,
		InputDir:    *inputDirFlag,
		OutputDir:   *outputDirFlag,
	}, false, nil
}
