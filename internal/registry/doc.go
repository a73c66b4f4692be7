// Package registry provides the central "glue" for the step module system.
//
// The Registry stores the mapping between the step kinds referenced by
// workflow files (e.g. "script") and the compiled Go handlers that implement
// them. During application startup the registry is populated by the compiled-in
// modules and then checked against the loaded workflow set, so a workflow
// referencing an unknown step kind fails before anything executes.
package registry
