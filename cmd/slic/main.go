package main

import (
	"fmt"
	"os"

	"github.com/example/slic/internal/apperr"
	"github.com/example/slic/internal/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if output := apperr.OutputOf(err); output != "" {
			fmt.Fprintln(os.Stderr, output)
		}
		if hint := apperr.HintOf(err); hint != "" {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}
