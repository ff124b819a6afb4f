// Package main provides the taxonomy CLI.
package main

import "github.com/banisterious/obsidian-oneirometrics-sub006/internal/cli"

func main() {
	cli.Execute()
}
