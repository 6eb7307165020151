// Package fable holds module-level metadata shared by the CLI and tests.
package fable

// Version is the current release version of the fable module.
const Version = "0.1.0"
