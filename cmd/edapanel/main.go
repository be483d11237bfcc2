// Package main is the edapanel command line.
package main

import "github.com/jsamuelsen/eda-panel/internal/cli"

func main() {
	cli.Execute()
}
