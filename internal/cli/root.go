package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Execute runs the surveypro CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (new, layout,
// validate, export, preview, serve), configures logging based on the
// --verbose flag, and executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute() error {
	c := New(os.Stderr, charmlog.InfoLevel)
	return c.RootCommand().ExecuteContext(context.Background())
}
