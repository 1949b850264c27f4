package layout

import (
	"slices"

	"github.com/joey603/surveypro/pkg/core/flow"
)

// Config holds the spacing constants of the layout. The vertical
// increments are tuned values, not derived from a single principle;
// treat them as knobs, not laws.
type Config struct {
	// BaseGap is the vertical distance between two consecutive levels
	// before any increment applies.
	BaseGap float64
	// CriticalGap is added to a level gap when a question at the upper
	// level is critical.
	CriticalGap float64
	// MediaGap is added when a question at the upper level carries a
	// media attachment.
	MediaGap float64
	// NestedGap is added when a question at the upper level is itself a
	// descendant of a critical ancestor.
	NestedGap float64
	// HorizontalUnit is the pixel width of one column slot.
	HorizontalUnit float64
	// CenterX is the x position of column 0 (the root's column).
	CenterX float64
	// TopMargin is the y position of the root level.
	TopMargin float64
}

// DefaultConfig returns the spacing used by the survey editor.
func DefaultConfig() Config {
	return Config{
		BaseGap:        150,
		CriticalGap:    80,
		MediaGap:       120,
		NestedGap:      60,
		HorizontalUnit: 220,
		CenterX:        400,
		TopMargin:      80,
	}
}

// Result is the outcome of a layout recompute. The maps cover questions
// reachable from the root; Unreachable lists the rest in sorted order.
type Result struct {
	Levels      map[string]int           `json:"levels"`
	Columns     map[string]float64       `json:"columns"`
	Positions   map[string]flow.Position `json:"positions"`
	Numbers     map[string]int           `json:"numbers"`
	Unreachable []string                 `json:"unreachable,omitempty"`
}

// Engine recomputes layout for a survey flow. Engine is stateless apart
// from its configuration and may be shared.
type Engine struct {
	cfg Config
}

// New creates a layout engine with the given spacing configuration.
// Zero-valued fields fall back to [DefaultConfig].
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.BaseGap == 0 {
		cfg.BaseGap = def.BaseGap
	}
	if cfg.CriticalGap == 0 {
		cfg.CriticalGap = def.CriticalGap
	}
	if cfg.MediaGap == 0 {
		cfg.MediaGap = def.MediaGap
	}
	if cfg.NestedGap == 0 {
		cfg.NestedGap = def.NestedGap
	}
	if cfg.HorizontalUnit == 0 {
		cfg.HorizontalUnit = def.HorizontalUnit
	}
	if cfg.CenterX == 0 {
		cfg.CenterX = def.CenterX
	}
	if cfg.TopMargin == 0 {
		cfg.TopMargin = def.TopMargin
	}
	return &Engine{cfg: cfg}
}

// Recompute runs the three layout passes and writes level, column,
// position and question number back onto the reachable questions.
// Unreachable questions keep their stale coordinates but their number
// is cleared to 0.
func (e *Engine) Recompute(f *flow.Flow) Result {
	res := Result{
		Levels:    make(map[string]int),
		Columns:   make(map[string]float64),
		Positions: make(map[string]flow.Position),
		Numbers:   make(map[string]int),
	}

	// Pass 1: levels, nesting and columns.
	levels := map[string]int{flow.RootID: 0}
	nested := map[string]bool{}
	var walk func(id string)
	walk = func(id string) {
		n, _ := f.Node(id)
		for _, c := range children(f, id) {
			if _, seen := levels[c]; seen {
				continue
			}
			levels[c] = levels[id] + 1
			nested[c] = nested[id] || n.Critical
			walk(c)
		}
	}
	walk(flow.RootID)

	widths := make(map[string]float64)
	var width func(id string) float64
	width = func(id string) float64 {
		if w, ok := widths[id]; ok {
			return w
		}
		widths[id] = 1 // guards diamonds from double counting
		kids := children(f, id)
		var w float64
		switch {
		case len(kids) == 0:
			w = 1
		case f.IsBranchPoint(id):
			for _, c := range kids {
				w += width(c)
			}
		default:
			w = width(kids[0])
		}
		widths[id] = w
		return w
	}

	cols := make(map[string]float64)
	placed := make(map[string]bool)
	var place func(id string, left float64)
	place = func(id string, left float64) {
		if placed[id] {
			return
		}
		placed[id] = true
		kids := children(f, id)
		switch {
		case len(kids) == 0:
			cols[id] = left
		case f.IsBranchPoint(id):
			x := left
			for _, c := range kids {
				place(c, x)
				x += width(c)
			}
			cols[id] = (cols[kids[0]] + cols[kids[len(kids)-1]]) / 2
		default:
			place(kids[0], left)
			cols[id] = cols[kids[0]]
		}
	}
	place(flow.RootID, 0)

	// Shift columns so the root sits at column 0.
	shift := cols[flow.RootID]
	for id := range cols {
		cols[id] -= shift
	}

	// Pass 2: per-level vertical gaps, cumulative from the root.
	maxLevel := 0
	for _, l := range levels {
		maxLevel = max(maxLevel, l)
	}
	y := make([]float64, maxLevel+1)
	y[0] = e.cfg.TopMargin
	for l := 0; l < maxLevel; l++ {
		gap := e.cfg.BaseGap
		var crit, media, nest bool
		for id, lvl := range levels {
			if lvl != l {
				continue
			}
			n, _ := f.Node(id)
			crit = crit || n.Critical
			media = media || n.Media != nil
			nest = nest || nested[id]
		}
		if crit {
			gap += e.cfg.CriticalGap
		}
		if media {
			gap += e.cfg.MediaGap
		}
		if nest {
			gap += e.cfg.NestedGap
		}
		y[l+1] = y[l] + gap
	}

	// Pass 3: renumber in traversal order, children by ascending column.
	number := 0
	numbered := make(map[string]bool)
	var renumber func(id string)
	renumber = func(id string) {
		if numbered[id] {
			return
		}
		numbered[id] = true
		number++
		res.Numbers[id] = number

		kids := slices.Clone(children(f, id))
		slices.SortStableFunc(kids, func(a, b string) int {
			switch {
			case cols[a] < cols[b]:
				return -1
			case cols[a] > cols[b]:
				return 1
			}
			return 0
		})
		for _, c := range kids {
			renumber(c)
		}
	}
	renumber(flow.RootID)

	// Write back.
	for _, n := range f.Nodes() {
		lvl, reachable := levels[n.ID]
		if !reachable {
			n.Number = 0
			res.Unreachable = append(res.Unreachable, n.ID)
			continue
		}
		n.Level = lvl
		n.Column = cols[n.ID]
		n.Pos = flow.Position{
			X: e.cfg.CenterX + cols[n.ID]*e.cfg.HorizontalUnit,
			Y: y[lvl],
		}
		n.Number = res.Numbers[n.ID]
		res.Levels[n.ID] = lvl
		res.Columns[n.ID] = n.Column
		res.Positions[n.ID] = n.Pos
	}
	slices.Sort(res.Unreachable)
	return res
}

// children returns the distinct child ids of a question in outgoing
// edge order (option order for a generated fan-out).
func children(f *flow.Flow, id string) []string {
	var out []string
	for _, e := range f.OutEdges(id) {
		if !slices.Contains(out, e.To) {
			out = append(out, e.To)
		}
	}
	return out
}
