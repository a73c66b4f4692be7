// Package dag is the execution layer of the application. It expands each
// workflow's jobs across their matrices into a Directed Acyclic Graph of job
// instances, validates the graph, and executes the instances concurrently
// according to their `needs` dependencies.
package dag
