// Package session provides the stateful editing session behind the
// survey builder.
//
// A Session owns a working copy of one survey's flow graph. Every
// mutation goes through the session, which keeps three things in sync
// atomically:
//   - the graph itself (fan-out synthesis runs inside the flow package)
//   - the layout, recomputed after each structural change
//   - media assets, released best-effort when their questions disappear
//
// Sessions are safe for concurrent use; the HTTP layer shares one
// session per open survey.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/joey603/surveypro/pkg/core/flow"
	"github.com/joey603/surveypro/pkg/core/flow/layout"
	"github.com/joey603/surveypro/pkg/core/flow/traverse"
	"github.com/joey603/surveypro/pkg/media"
	"github.com/joey603/surveypro/pkg/survey"
)

// ErrClosed is returned when a mutation reaches a closed session.
var ErrClosed = errors.New("session closed")

// mediaDeleteTimeout bounds each background asset removal.
const mediaDeleteTimeout = 30 * time.Second

// Options configures a session. Zero values get sensible defaults.
type Options struct {
	Layout  layout.Config
	Deleter media.Deleter
	Logger  *log.Logger
}

// Session is a live editing session over one survey.
type Session struct {
	mu      sync.Mutex
	doc     *survey.Survey
	f       *flow.Flow
	eng     *layout.Engine
	deleter media.Deleter
	logger  *log.Logger
	dirty   bool
	closed  bool
	wg      sync.WaitGroup
}

// Open starts an editing session for a survey. The stored graph is
// validated on load and laid out immediately so the editor never shows
// stale coordinates.
func Open(doc *survey.Survey, opts Options) (*Session, error) {
	f, err := doc.Flow()
	if err != nil {
		return nil, err
	}
	if opts.Deleter == nil {
		opts.Deleter = media.NopDeleter{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Session{
		doc:     doc,
		f:       f,
		eng:     layout.New(opts.Layout),
		deleter: opts.Deleter,
		logger:  opts.Logger,
	}
	s.eng.Recompute(s.f)
	return s, nil
}

// =============================================================================
// Mutations
// =============================================================================

// AddQuestion inserts a question after an existing one and returns the
// new question's id.
func (s *Session) AddQuestion(afterID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	id, err := s.f.AddQuestion(afterID)
	if err != nil {
		return "", err
	}
	s.commit()
	return id, nil
}

// UpdateQuestion applies a patch. When the patch changes the question's
// branch labels the fan-out is regenerated and any released media
// assets are scheduled for removal. The ids of newly generated children
// are returned.
func (s *Session) UpdateQuestion(id string, p flow.Patch) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	before := mediaRefs(s.f)
	children, err := s.f.UpdateQuestion(id, p)
	if err != nil {
		return nil, err
	}
	s.releaseMedia(before)
	s.commit()
	return children, nil
}

// DeleteQuestion removes a question and its incident edges. Media
// attached to the removed question is released in the background.
func (s *Session) DeleteQuestion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	before := mediaRefs(s.f)
	if _, err := s.f.DeleteQuestion(id); err != nil {
		return err
	}
	s.releaseMedia(before)
	s.commit()
	return nil
}

// Connect adds an edge between two questions.
func (s *Session) Connect(from, to, label string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	id, err := s.f.Connect(from, to, label)
	if err != nil {
		return "", err
	}
	s.commit()
	return id, nil
}

// Retarget points an existing edge at a different question.
func (s *Session) Retarget(edgeID, newTarget string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.f.Retarget(edgeID, newTarget); err != nil {
		return err
	}
	s.commit()
	return nil
}

// Disconnect removes an edge.
func (s *Session) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.f.Disconnect(edgeID); err != nil {
		return err
	}
	s.commit()
	return nil
}

// Reset discards every question except a fresh root. All media in the
// survey is released.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	before := mediaRefs(s.f)
	s.f.Reset()
	s.releaseMedia(before)
	s.commit()
	return nil
}

// commit recomputes the layout and marks the session dirty. Callers
// hold the mutex.
func (s *Session) commit() {
	s.eng.Recompute(s.f)
	s.dirty = true
}

// =============================================================================
// Media Release
// =============================================================================

// mediaRefs collects every media reference currently in the graph.
func mediaRefs(f *flow.Flow) map[string]flow.MediaRef {
	refs := make(map[string]flow.MediaRef)
	for _, n := range f.Nodes() {
		if n.Media != nil {
			refs[n.Media.ID] = *n.Media
		}
	}
	return refs
}

// releaseMedia deletes, in the background, every asset that was present
// before a mutation and is gone after it. This covers direct deletes,
// cleared attachments and fan-out regeneration in one place. Failures
// are logged and otherwise ignored.
func (s *Session) releaseMedia(before map[string]flow.MediaRef) {
	after := mediaRefs(s.f)
	for id, ref := range before {
		if _, ok := after[id]; ok {
			continue
		}
		s.wg.Add(1)
		go func(ref flow.MediaRef) {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), mediaDeleteTimeout)
			defer cancel()
			if err := s.deleter.Delete(ctx, ref); err != nil {
				s.logger.Warn("media release failed", "media_id", ref.ID, "err", err)
			}
		}(ref)
	}
}

// =============================================================================
// Read Side
// =============================================================================

// Snapshot writes the current graph back into the survey document and
// returns it. The dirty flag clears; callers persist the returned
// document.
func (s *Session) Snapshot() *survey.Survey {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.SetFlow(s.f)
	s.dirty = false
	return s.doc
}

// Dirty reports whether the graph changed since the last snapshot.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Validate checks the graph invariants of the working copy.
func (s *Session) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Validate()
}

// Preview returns a walker over the current graph for answer-time
// traversal in the editor's preview pane. The walker reads the live
// graph without locking; do not mutate the session while a preview is
// walking.
func (s *Session) Preview() *traverse.Walker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return traverse.NewWalker(s.f)
}

// Step resolves the question that follows current under the given
// answers. It reports false at the end of the survey and at an
// unanswered branch point. Used by the stateless preview API.
func (s *Session) Step(current string, answers map[string]string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return traverse.Next(s.f, current, answers)
}

// Remaining counts the questions left from current along the path the
// answers select, including current itself.
func (s *Session) Remaining(current string, answers map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return traverse.RemainingCount(s.f, current, answers)
}

// Walk follows the answers from the root to a leaf and returns the
// visited path. The second return reports whether a leaf was reached;
// it is false when an unanswered or unmatched branch point stops the
// walk early.
func (s *Session) Walk(answers map[string]string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := []string{flow.RootID}
	current := flow.RootID
	for {
		next, ok := traverse.Next(s.f, current, answers)
		if !ok {
			return path, s.f.OutDegree(current) == 0
		}
		path = append(path, next)
		current = next
	}
}

// Layout returns the layout computed for the current graph.
func (s *Session) Layout() layout.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.Recompute(s.f)
}

// Node returns a copy of one question.
func (s *Session) Node(id string) (flow.QuestionNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.f.Node(id)
	if !ok {
		return flow.QuestionNode{}, false
	}
	return *n, true
}

// Close waits for in-flight media removals and rejects further
// mutations.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}
