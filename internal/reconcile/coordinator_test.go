package reconcile

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/models"
	"github.com/starford/taglog/internal/storage"
	"github.com/starford/taglog/internal/testutil"
)

// panickingReads wraps a provider whose reads panic.
type panickingReads struct {
	storage.Provider
}

func (panickingReads) Read(string) ([]byte, error) { panic("file vanished") }

func today() string { return "16-10-2026.md" }

func countEvents(t *testing.T, l *eventlog.Log, ev eventlog.Event) int {
	t.Helper()
	n := 0
	for _, r := range testutil.Records(t, l) {
		if r.Event == ev {
			n++
		}
	}
	return n
}

func TestRun_ProcessesAllAndFinalizes(t *testing.T) {
	dir, store := testutil.TestJournal(t)
	log := testutil.TestLog(t)
	testutil.WriteFile(t, dir, "a.md", "a\n\n#alpha\n")
	testutil.WriteFile(t, dir, "b.md", "---\ntitle: b\n---\n")
	testutil.WriteFile(t, dir, "c.md", "short\n")

	coord := NewCoordinator(New(store, log, quiet), log, today, quiet)
	sum, err := coord.Run(context.Background(), store.Candidates(time.Time{}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(sum.Outcomes))
	}
	if sum.Counts[DecisionInjected] != 1 || sum.Counts[DecisionSkipped] != 2 {
		t.Errorf("counts = %v", sum.Counts)
	}
	if !sum.Finalized {
		t.Error("expected finalize record")
	}
	if n := countEvents(t, log, eventlog.EventDailyLogFinalized); n != 1 {
		t.Errorf("finalize records = %d, want 1", n)
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	_, store := testutil.TestJournal(t)
	log := testutil.TestLog(t)
	coord := NewCoordinator(New(store, log, quiet), log, today, quiet)

	first, err := coord.Finalize()
	if err != nil || !first {
		t.Fatalf("first finalize = %v, %v", first, err)
	}
	second, err := coord.Finalize()
	if err != nil || second {
		t.Fatalf("second finalize = %v, %v", second, err)
	}
	if n := countEvents(t, log, eventlog.EventDailyLogFinalized); n != 1 {
		t.Errorf("finalize records = %d, want 1", n)
	}

	// Repeated runs on the same day do not add another marker either.
	if _, err := coord.Run(context.Background(), slices.Values([]models.Candidate(nil))); err != nil {
		t.Fatal(err)
	}
	if n := countEvents(t, log, eventlog.EventDailyLogFinalized); n != 1 {
		t.Errorf("finalize records after run = %d, want 1", n)
	}
}

func TestRun_CandidateErrorIsMtimeError(t *testing.T) {
	dir, store := testutil.TestJournal(t)
	log := testutil.TestLog(t)
	testutil.WriteFile(t, dir, "ok.md", "a\n\n#alpha\n")

	cands := []models.Candidate{
		{Path: "gone.md", Name: "gone.md", Err: errors.New("stat gone.md: no such file")},
		{Path: "ok.md", Name: "ok.md"},
	}
	coord := NewCoordinator(New(store, log, quiet), log, today, quiet)
	sum, err := coord.Run(context.Background(), slices.Values(cands))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Outcomes[0].Reason != eventlog.ReasonMtimeError || sum.Outcomes[0].File != "gone.md" {
		t.Errorf("first outcome = %+v", sum.Outcomes[0])
	}
	if sum.Outcomes[1].Decision != DecisionInjected {
		t.Errorf("run did not continue: %+v", sum.Outcomes[1])
	}
}

func TestRun_PanicIsolated(t *testing.T) {
	_, store := testutil.TestJournal(t)
	log := testutil.TestLog(t)
	coord := NewCoordinator(New(panickingReads{store}, log, quiet), log, today, quiet)

	cands := []models.Candidate{{Path: "p.md", Name: "p.md"}, {Path: "q.md", Name: "q.md"}}
	sum, err := coord.Run(context.Background(), slices.Values(cands))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(sum.Outcomes))
	}
	for _, out := range sum.Outcomes {
		if out.Reason != eventlog.ReasonMtimeError {
			t.Errorf("outcome = %+v, want mtime_error", out)
		}
	}
	if !sum.Finalized {
		t.Error("run should still finalize")
	}
}

func TestRun_LogAppendFailureReported(t *testing.T) {
	dir, store := testutil.TestJournal(t)
	// A directory cannot be opened for appending.
	log := eventlog.New(t.TempDir())
	testutil.WriteFile(t, dir, "a.md", "a\n\n#alpha\n")
	testutil.WriteFile(t, dir, "b.md", "b\n\n#beta\n")

	coord := NewCoordinator(New(store, log, quiet), log, today, quiet)
	sum, err := coord.Run(context.Background(), store.Candidates(time.Time{}))
	if err == nil {
		t.Fatal("expected error for failed log appends")
	}
	if len(sum.Outcomes) != 2 {
		t.Errorf("outcomes = %d, want both files processed", len(sum.Outcomes))
	}
	for _, out := range sum.Outcomes {
		if out.Err == nil {
			t.Errorf("outcome %s has no append error", out.File)
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	dir, store := testutil.TestJournal(t)
	log := testutil.TestLog(t)
	testutil.WriteFile(t, dir, "a.md", "a\n\n#alpha\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coord := NewCoordinator(New(store, log, quiet), log, today, quiet)
	var cands iter.Seq[models.Candidate] = store.Candidates(time.Time{})
	sum, err := coord.Run(ctx, cands)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(sum.Outcomes) != 0 {
		t.Errorf("outcomes = %d, want 0", len(sum.Outcomes))
	}
}
