// Package survey defines the persistent survey document and its
// conversion to and from the in-memory flow graph.
package survey

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/joey603/surveypro/pkg/core/flow"
)

// =============================================================================
// Survey - Canonical Document
// =============================================================================

// Survey is the canonical serialization format for a survey. It is what
// gets written to disk, stored in MongoDB and sent over the API.
//
// Nodes carry their computed layout fields so a stored survey renders
// identically on reload without recomputation.
type Survey struct {
	ID          string              `json:"id" bson:"_id"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description,omitempty" bson:"description,omitempty"`
	Demographic bool                `json:"demographic,omitempty" bson:"demographic,omitempty"`
	Private     bool                `json:"private,omitempty" bson:"private,omitempty"`
	Nodes       []flow.QuestionNode `json:"nodes" bson:"nodes"`
	Edges       []flow.Edge         `json:"edges" bson:"edges"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at" bson:"updated_at"`
}

// New creates an empty survey with a fresh id and a single root question.
func New(title string) *Survey {
	now := time.Now().UTC()
	s := &Survey{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.SetFlow(flow.New())
	return s
}

// =============================================================================
// Flow ↔ Survey Conversion
// =============================================================================

// Flow builds a mutable graph from the stored nodes and edges. It fails
// if the stored structure violates a graph invariant, which protects
// against hand-edited or corrupted documents.
func (s *Survey) Flow() (*flow.Flow, error) {
	f, err := flow.Load(s.Nodes, s.Edges)
	if err != nil {
		return nil, fmt.Errorf("survey %s: %w", s.ID, err)
	}
	return f, nil
}

// SetFlow replaces the stored nodes and edges with a snapshot of the
// graph and bumps UpdatedAt. Nodes are sorted by id for deterministic
// output.
func (s *Survey) SetFlow(f *flow.Flow) {
	ptrs := f.Nodes()
	nodes := make([]flow.QuestionNode, len(ptrs))
	for i, n := range ptrs {
		nodes[i] = *n
		nodes[i].Options = slices.Clone(n.Options)
		if n.Media != nil {
			m := *n.Media
			nodes[i].Media = &m
		}
	}
	slices.SortFunc(nodes, func(a, b flow.QuestionNode) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	s.Nodes = nodes
	s.Edges = f.Edges()
	s.UpdatedAt = time.Now().UTC()
}

// QuestionCount returns the number of questions in the survey.
func (s *Survey) QuestionCount() int { return len(s.Nodes) }

// =============================================================================
// Serialization
// =============================================================================

// Marshal serializes the survey to indented JSON.
func Marshal(s *Survey) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal deserializes JSON bytes to a survey.
func Unmarshal(data []byte) (*Survey, error) {
	var s Survey
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse survey: %w", err)
	}
	return &s, nil
}

// ReadFile loads a survey from a JSON file.
func ReadFile(path string) (*Survey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read survey file: %w", err)
	}
	return Unmarshal(data)
}

// WriteFile writes a survey to a JSON file.
func WriteFile(path string, s *Survey) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal survey: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write survey file: %w", err)
	}
	return nil
}
