package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joey603/surveypro/pkg/core/flow/layout"
	"github.com/joey603/surveypro/pkg/errors"
	"github.com/joey603/surveypro/pkg/survey"
)

// newCommand creates the new command for scaffolding survey files.
func (c *CLI) newCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a survey file with a single root question",
		Long: `Create a survey file with a single root question.

The new command writes a survey JSON file containing the root question,
already laid out. Edit it with the API ('surveypro serve') or by hand,
then validate with 'surveypro validate'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNew(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <title-slug>.json)")

	return cmd
}

// runNew creates the survey document and writes it to disk.
func (c *CLI) runNew(title, output string) error {
	if err := errors.ValidateTitle(title); err != nil {
		return err
	}

	doc := survey.New(title)
	f, err := doc.Flow()
	if err != nil {
		return fmt.Errorf("build survey: %w", err)
	}
	layout.New(c.Config.layoutConfig()).Recompute(f)
	doc.SetFlow(f)

	if output == "" {
		output = titleSlug(title) + ".json"
	}
	if err := survey.WriteFile(output, doc); err != nil {
		return fmt.Errorf("write survey %s: %w", output, err)
	}

	printSuccess("Survey created")
	printFile(output)
	printKeyValue("id", doc.ID)
	printNextStep("Validate", "surveypro validate "+output)

	return nil
}

// titleSlug lowercases a title and keeps letters and digits, joining
// runs with dashes.
func titleSlug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
