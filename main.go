// Package main is the entry point for the flog CLI.
package main

import "flog.dev/pkg/flog/cmd"

func main() {
	cmd.Execute()
}
