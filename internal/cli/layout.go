package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joey603/surveypro/pkg/core/flow/layout"
	"github.com/joey603/surveypro/pkg/survey"
)

// layoutCommand creates the layout command for recomputing positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "layout [survey.json]",
		Short: "Recompute positions and numbering for a survey file",
		Long: `Recompute positions and numbering for a survey file.

The layout command loads a survey JSON file, recomputes level, column,
pixel position and question number for every reachable question, and
writes the updated file back. Unreachable questions keep their stale
coordinates and get number 0.

With --json the computed layout is printed to stdout instead of being
written back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, asJSON)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout as JSON instead of writing the file")

	return cmd
}

// runLayout loads the survey, recomputes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, output string, asJSON bool) error {
	logger := loggerFromContext(ctx)

	doc, err := survey.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load survey %s: %w", input, err)
	}
	f, err := doc.Flow()
	if err != nil {
		return fmt.Errorf("survey %s: %w", input, err)
	}

	p := newProgress(logger)
	res := layout.New(c.Config.layoutConfig()).Recompute(f)
	p.done(fmt.Sprintf("Laid out %d questions", len(res.Numbers)))

	if len(res.Unreachable) > 0 {
		printWarning("%d questions unreachable from the root", len(res.Unreachable))
		for _, id := range res.Unreachable {
			printDetail("%s", id)
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	doc.SetFlow(f)
	if output == "" {
		output = input
	}
	if err := survey.WriteFile(output, doc); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(doc.QuestionCount(), len(doc.Edges), false)

	return nil
}
