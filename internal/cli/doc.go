// Package cli resolves the command line into a run invocation and carries
// the exit code a failure should map to.
package cli
