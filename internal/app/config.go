package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPath   string // a single workflow file or a directory of them
	ExperimentPath string // an experiment sheet to load, validate and print

	EventKind      string
	Branch         string
	DispatchInputs map[string]string

	LogFormat   string
	LogLevel    string
	WorkerCount int
	MetricsPort int
	NotifyURL   string
	DryRun      bool
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" && cfg.ExperimentPath == "" {
		return nil, errors.New("either a workflow path or an experiment sheet is required")
	}

	if cfg.WorkflowPath != "" && cfg.EventKind == "" {
		return nil, errors.New("an event kind is required to run workflows")
	}

	return &cfg, nil
}
