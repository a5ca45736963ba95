// Package bootstrap runs command-line tasks with a common lifecycle:
// validate config, initialize logging, run start hooks, run the task under
// signal cancellation, then run stop hooks.
package bootstrap
