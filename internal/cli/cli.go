package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kvolkov/gridci/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// inputFlags collects repeated -input key=value pairs for workflow_dispatch.
type inputFlags map[string]string

func (f inputFlags) String() string {
	return fmt.Sprintf("%v", map[string]string(f))
}

func (f inputFlags) Set(raw string) error {
	key, value, ok := strings.Cut(raw, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got '%s'", raw)
	}
	f[key] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridci", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
gridci - a local runner for CI workflow definitions and experiment sheets.

Usage:
  gridci [options] [WORKFLOW_PATH]

Arguments:
  WORKFLOW_PATH
    Path to a single workflow .yml file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	workflowFlag := flagSet.String("workflow", "", "Path to the workflow file or directory.")
	wFlag := flagSet.String("w", "", "Path to the workflow file or directory (shorthand).")
	experimentFlag := flagSet.String("experiment", "", "Load and validate an experiment sheet, print the resolved values, and exit.")
	eventFlag := flagSet.String("event", "", "Trigger event kind. Options: 'push', 'pull_request', or 'workflow_dispatch'.")
	branchFlag := flagSet.String("branch", "", "Branch name of a push event.")
	inputs := make(inputFlags)
	flagSet.Var(inputs, "input", "workflow_dispatch input as key=value. May be repeated.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the expanded job plan without executing anything.")
	metricsPortFlag := flagSet.Int("metrics-port", 0, "Port for the HTTP health/metrics server. 0 is disabled.")
	notifyURLFlag := flagSet.String("notify-url", "", "socket.io endpoint for job status events. Empty is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for the executor.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *workflowFlag != "" {
		path = *workflowFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Workflow path determined.", "path", path)

	if path == "" && *experimentFlag == "" {
		slog.Debug("No workflow or experiment path provided, printing usage and exiting.")
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
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		WorkflowPath:   path,
		ExperimentPath: *experimentFlag,
		EventKind:      *eventFlag,
		Branch:         *branchFlag,
		DispatchInputs: inputs,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		WorkerCount:    *workersFlag,
		MetricsPort:    *metricsPortFlag,
		NotifyURL:      *notifyURLFlag,
		DryRun:         *dryRunFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
