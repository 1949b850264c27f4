// Command surveypro is the survey builder CLI.
package main

import (
	"os"

	"github.com/joey603/surveypro/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
