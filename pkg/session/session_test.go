package session

import (
	"context"
	"sync"
	"testing"

	"github.com/joey603/surveypro/pkg/core/flow"
	"github.com/joey603/surveypro/pkg/core/flow/layout"
	"github.com/joey603/surveypro/pkg/survey"
)

// recordingDeleter captures released media ids.
type recordingDeleter struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDeleter) Delete(_ context.Context, ref flow.MediaRef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, ref.ID)
	return nil
}

func (d *recordingDeleter) released() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ids...)
}

func open(t *testing.T, opts Options) *Session {
	t.Helper()
	s, err := Open(survey.New("test"), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenLaysOut(t *testing.T) {
	s := open(t, Options{})
	defer s.Close()

	cfg := layout.DefaultConfig()
	n, ok := s.Node(flow.RootID)
	if !ok {
		t.Fatal("root missing")
	}
	if n.Pos.X != cfg.CenterX || n.Pos.Y != cfg.TopMargin {
		t.Errorf("root pos = %+v, want (%v, %v)", n.Pos, cfg.CenterX, cfg.TopMargin)
	}
	if n.Number != 1 {
		t.Errorf("root number = %d, want 1", n.Number)
	}
}

func TestMutationsRelayout(t *testing.T) {
	s := open(t, Options{})
	defer s.Close()

	id, err := s.AddQuestion(flow.RootID)
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}

	n, _ := s.Node(id)
	if n.Level != 1 || n.Number != 2 {
		t.Errorf("new question level/number = %d/%d, want 1/2", n.Level, n.Number)
	}
	if !s.Dirty() {
		t.Error("session not dirty after mutation")
	}
}

func TestSnapshotClearsDirty(t *testing.T) {
	s := open(t, Options{})
	defer s.Close()

	s.AddQuestion(flow.RootID)
	doc := s.Snapshot()

	if doc.QuestionCount() != 2 {
		t.Errorf("snapshot questions = %d, want 2", doc.QuestionCount())
	}
	if s.Dirty() {
		t.Error("dirty after snapshot")
	}
}

func TestDeleteReleasesMedia(t *testing.T) {
	rec := &recordingDeleter{}
	s := open(t, Options{Deleter: rec})

	id, _ := s.AddQuestion(flow.RootID)
	if _, err := s.UpdateQuestion(id, flow.Patch{Media: &flow.MediaRef{ID: "asset-1", URL: "http://x"}}); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if err := s.DeleteQuestion(id); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	s.Close() // waits for background releases

	if got := rec.released(); len(got) != 1 || got[0] != "asset-1" {
		t.Errorf("released = %v, want [asset-1]", got)
	}
}

func TestFanOutRegenerationReleasesMedia(t *testing.T) {
	rec := &recordingDeleter{}
	s := open(t, Options{Deleter: rec})

	typ := flow.TypeYesNo
	crit := true
	s.UpdateQuestion(flow.RootID, flow.Patch{Type: &typ, Critical: &crit})
	// Attach media to a generated child, then change the branch labels.
	if _, err := s.UpdateQuestion("1_yes", flow.Patch{Media: &flow.MediaRef{ID: "asset-2", URL: "http://x"}}); err != nil {
		t.Fatalf("UpdateQuestion child: %v", err)
	}

	dtyp := flow.TypeDropdown
	opts := []string{"Maybe"}
	if _, err := s.UpdateQuestion(flow.RootID, flow.Patch{Type: &dtyp, Options: &opts}); err != nil {
		t.Fatalf("UpdateQuestion root: %v", err)
	}
	s.Close()

	if got := rec.released(); len(got) != 1 || got[0] != "asset-2" {
		t.Errorf("released = %v, want [asset-2]", got)
	}
}

func TestResetReleasesAllMedia(t *testing.T) {
	rec := &recordingDeleter{}
	s := open(t, Options{Deleter: rec})

	a, _ := s.AddQuestion(flow.RootID)
	s.UpdateQuestion(a, flow.Patch{Media: &flow.MediaRef{ID: "m1", URL: "u"}})
	s.Reset()
	s.Close()

	if got := rec.released(); len(got) != 1 || got[0] != "m1" {
		t.Errorf("released = %v, want [m1]", got)
	}
}

func TestClosedSessionRejectsMutations(t *testing.T) {
	s := open(t, Options{})
	s.Close()

	if _, err := s.AddQuestion(flow.RootID); err != ErrClosed {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestPreviewWalksCurrentGraph(t *testing.T) {
	s := open(t, Options{})
	defer s.Close()

	typ := flow.TypeYesNo
	crit := true
	s.UpdateQuestion(flow.RootID, flow.Patch{Type: &typ, Critical: &crit})

	w := s.Preview()
	w.SetAnswer(flow.RootID, "Yes")
	if !w.Advance() {
		t.Fatal("preview walker did not advance")
	}
	if w.Current() != "1_yes" {
		t.Errorf("current = %s, want 1_yes", w.Current())
	}
}

func TestConnectAndDisconnect(t *testing.T) {
	s := open(t, Options{})
	defer s.Close()

	a, _ := s.AddQuestion(flow.RootID)
	b, _ := s.AddQuestion("") // detached

	eid, err := s.Connect(a, b, "")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// b is now reachable and numbered.
	n, _ := s.Node(b)
	if n.Number == 0 {
		t.Error("connected question not numbered")
	}

	if err := s.Disconnect(eid); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	n, _ = s.Node(b)
	if n.Number != 0 {
		t.Error("disconnected question kept its number")
	}
}
