// Package main provides the fable CLI entry point.
package main

import "github.com/mesh-intelligence/fable/internal/cli"

func main() {
	cli.Execute()
}
