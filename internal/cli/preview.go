package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joey603/surveypro/pkg/core/flow"
	"github.com/joey603/surveypro/pkg/core/flow/traverse"
	"github.com/joey603/surveypro/pkg/survey"
)

// previewCommand creates the preview command for walking a survey.
func (c *CLI) previewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview [survey.json]",
		Short: "Walk a survey interactively in the terminal",
		Long: `Walk a survey interactively in the terminal.

The preview command answers the survey the way a respondent would:
one question at a time, following the branch selected by each answer.
Questions with options are answered by picking one; other questions
are skipped through, since the path does not depend on their answer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(args[0])
		},
	}

	return cmd
}

// runPreview loads the survey and starts the bubbletea walk.
func (c *CLI) runPreview(input string) error {
	doc, err := survey.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load survey %s: %w", input, err)
	}
	f, err := doc.Flow()
	if err != nil {
		return fmt.Errorf("survey %s: %w", input, err)
	}

	model := NewWalkModel(doc.Title, f)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("run preview: %w", err)
	}

	m, ok := final.(WalkModel)
	if !ok || !m.Finished {
		printInfo("Preview aborted")
		return nil
	}

	printSuccess("Survey complete")
	for _, id := range m.Walker.History() {
		n, ok := f.Node(id)
		if !ok {
			continue
		}
		answer, answered := m.Walker.Answer(id)
		if answered {
			printDetail("%s %s %s", n.Text, iconArrow, answer)
		} else {
			printDetail("%s", n.Text)
		}
	}
	return nil
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// WalkModel - Interactive survey walk
// =============================================================================

// WalkModel is the bubbletea model for answering a survey question by
// question.
type WalkModel struct {
	Title    string
	Walker   *traverse.Walker
	Cursor   int
	Finished bool

	f *flow.Flow
}

// NewWalkModel creates a walk model positioned at the root question.
func NewWalkModel(title string, f *flow.Flow) WalkModel {
	return WalkModel{
		Title:  title,
		Walker: traverse.NewWalker(f),
		f:      f,
	}
}

func (m WalkModel) Init() tea.Cmd {
	return nil
}

func (m WalkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.options())-1 {
				m.Cursor++
			}
		case "left", "backspace":
			if m.Walker.Retreat() {
				m.Cursor = 0
			}
		case "enter":
			if opts := m.options(); len(opts) > 0 {
				m.Walker.SetAnswer(m.Walker.Current(), opts[m.Cursor])
			}
			if m.Walker.Advance() {
				m.Cursor = 0
				return m, nil
			}
			if m.Walker.AtEnd() {
				m.Finished = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m WalkModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ choose  ⏎ answer  ← back  q quit"))
	b.WriteString("\n\n")

	n, ok := m.f.Node(m.Walker.Current())
	if !ok {
		return b.String()
	}

	text := n.Text
	if text == "" {
		text = n.ID
	}
	b.WriteString(StyleHighlight.Render(fmt.Sprintf("%d. ", n.Number)))
	b.WriteString(StyleValue.Render(text))
	b.WriteString("\n\n")

	opts := m.options()
	if len(opts) == 0 {
		b.WriteString(listDimStyle.Render("  free answer, press enter to continue"))
		b.WriteString("\n")
	}
	for i, opt := range opts {
		cursor := "  "
		if i == m.Cursor {
			cursor = "> "
		}
		line := cursor + opt
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d answered · at most %d to go",
		len(m.Walker.History())-1, m.Walker.Remaining()-1)))

	return b.String()
}

// options returns the answer choices for the current question. Branch
// labels win over the authored options so the preview always offers
// the labels that actually steer the traversal.
func (m WalkModel) options() []string {
	n, ok := m.f.Node(m.Walker.Current())
	if !ok {
		return nil
	}
	if labels := n.BranchLabels(); len(labels) > 0 {
		return labels
	}
	return n.Options
}
