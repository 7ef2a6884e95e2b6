// Command findiff computes finite-difference derivatives from the shell
// and over HTTP.
package main

import (
	"context"
	"os"

	"github.com/alexshd/findiff/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
