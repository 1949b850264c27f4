package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joey603/surveypro/pkg/core/flow/layout"
	"github.com/joey603/surveypro/pkg/errors"
	"github.com/joey603/surveypro/pkg/survey"
)

// validateCommand creates the validate command for checking graph invariants.
func (c *CLI) validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [survey.json]",
		Short: "Check a survey file against the graph invariants",
		Long: `Check a survey file against the graph invariants.

Validation verifies that the root question exists, every edge connects
known questions, the graph is acyclic, no linear question has more than
one outgoing edge, and every critical question's fan-out matches its
options. Unreachable questions are reported as warnings, not errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(args[0])
		},
	}

	return cmd
}

// runValidate loads the survey and reports the validation result.
func (c *CLI) runValidate(input string) error {
	doc, err := survey.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load survey %s: %w", input, err)
	}

	f, err := doc.Flow()
	if err != nil {
		err = errors.FromEngine(err)
		printError("Validation failed")
		printDetail("%s", errors.UserMessage(err))
		return err
	}

	res := layout.New(c.Config.layoutConfig()).Recompute(f)
	for _, id := range res.Unreachable {
		printWarning("question %s is unreachable from the root", id)
	}

	printSuccess("Survey is valid")
	printStats(doc.QuestionCount(), len(doc.Edges), false)
	return nil
}
