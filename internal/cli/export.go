package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joey603/surveypro/pkg/cache"
	"github.com/joey603/surveypro/pkg/core/flow"
	"github.com/joey603/surveypro/pkg/render"
	"github.com/joey603/surveypro/pkg/survey"
)

// exportTTL bounds how long rendered SVG artifacts stay in the cache.
const exportTTL = 24 * time.Hour

// exportCommand creates the export command for generating diagrams.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "export [survey.json]",
		Short: "Generate DOT, SVG or PNG diagrams of the survey graph",
		Long: `Generate DOT, SVG or PNG diagrams of the survey graph.

The export command renders the question graph with branch edges labeled
by their answer, branch points highlighted, and questions with media
drawn as notes. SVG and PNG rendering go through graphviz and are
cached locally; DOT output is always fresh.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], format, output, detailed, noCache)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot (default), svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include question type and number in labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runExport loads the survey, renders the requested format, and writes
// the artifact.
func (c *CLI) runExport(ctx context.Context, input, format, output string, detailed, noCache bool) error {
	doc, err := survey.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load survey %s: %w", input, err)
	}
	f, err := doc.Flow()
	if err != nil {
		return fmt.Errorf("survey %s: %w", input, err)
	}

	dot := render.ToDOT(f, render.Options{Detailed: detailed})

	var data []byte
	var cached bool
	switch format {
	case "dot":
		data = []byte(dot)
	case "svg", "png":
		data, cached, err = c.renderArtifact(ctx, doc, dot, format, noCache)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
	default:
		return fmt.Errorf("unsupported format %q (want dot, svg or png)", format)
	}

	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		output = base + "." + format
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Export complete")
	printFile(output)
	printStats(doc.QuestionCount(), len(doc.Edges), cached)

	return nil
}

// renderArtifact renders the DOT source through graphviz, consulting
// the artifact cache first. The cache key covers only the graph
// structure, so cosmetic document edits do not invalidate it.
func (c *CLI) renderArtifact(ctx context.Context, doc *survey.Survey, dot, format string, noCache bool) ([]byte, bool, error) {
	store := c.newCache(noCache)
	defer store.Close()

	graph, err := json.Marshal(struct {
		Nodes []flow.QuestionNode `json:"nodes"`
		Edges []flow.Edge         `json:"edges"`
	}{doc.Nodes, doc.Edges})
	if err != nil {
		return nil, false, err
	}
	key := cache.NewDefaultKeyer().ArtifactKey(cache.Hash(graph), cache.ArtifactKeyOpts{Format: format})

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		return data, true, nil
	}

	var data []byte
	if format == "png" {
		data, err = render.RenderPNG(ctx, dot)
	} else {
		data, err = render.RenderSVG(ctx, dot)
	}
	if err != nil {
		return nil, false, err
	}
	if err := store.Set(ctx, key, data, exportTTL); err != nil {
		c.Logger.Debug("artifact cache write failed", "err", err)
	}
	return data, false, nil
}
