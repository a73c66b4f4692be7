// Package config defines the unified, format-agnostic model of the loaded
// workflow set, plus the Loader interface that format-specific packages
// implement. Everything downstream of loading (trigger matching, graph
// building, execution) works against this model and never touches raw YAML.
package config
