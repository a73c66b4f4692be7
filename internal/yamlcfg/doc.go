// Package yamlcfg provides the concrete YAML implementation of the workflow
// Loader interface defined in the `config` package. It is responsible for
// file discovery, YAML parsing, structural validation against the consuming
// schema, and translation into the format-agnostic model.
package yamlcfg
