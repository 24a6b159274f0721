package reconcile

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/models"
)

// Summary aggregates the outcomes of one run.
type Summary struct {
	Outcomes  []Outcome
	Counts    map[Decision]int
	Finalized bool // a daily_log_finalized record was appended by this run
}

// Coordinator runs the Reconciler over a stream of candidate files and writes the
// end-of-run finalize marker.
type Coordinator struct {
	rec    *Reconciler
	log    *eventlog.Log
	today  func() string
	logger *slog.Logger
}

// NewCoordinator creates a Coordinator. today returns the name of the current
// day's journal file.
func NewCoordinator(rec *Reconciler, log *eventlog.Log, today func() string, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{rec: rec, log: log, today: today, logger: logger}
}

// Run reconciles every candidate in order, then finalizes. A failure on one file
// never stops the run. The returned error joins every event-log append failure.
func (c *Coordinator) Run(ctx context.Context, candidates iter.Seq[models.Candidate]) (Summary, error) {
	sum := Summary{Counts: make(map[Decision]int)}
	var errs []error

	for cand := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var out Outcome
		if cand.Err != nil {
			c.logger.Warn("run: candidate unavailable",
				slog.String("file", cand.Name), slog.String("error", cand.Err.Error()))
			out = c.rec.Skip(cand.Name, eventlog.ReasonMtimeError)
		} else {
			out = c.reconcile(cand)
		}

		sum.Outcomes = append(sum.Outcomes, out)
		sum.Counts[out.Decision]++
		if out.Err != nil {
			errs = append(errs, out.Err)
		}
	}

	finalized, err := c.Finalize()
	if err != nil {
		errs = append(errs, err)
	}
	sum.Finalized = finalized

	c.logger.Info("run: complete",
		slog.Int("files", len(sum.Outcomes)),
		slog.Int("injected", sum.Counts[DecisionInjected]),
		slog.Int("updated", sum.Counts[DecisionUpdated]),
		slog.Int("skipped", sum.Counts[DecisionSkipped]),
		slog.Int("unchanged", sum.Counts[DecisionNoChange]),
		slog.Bool("finalized", finalized))

	return sum, errors.Join(errs...)
}

// reconcile shields the run from a panic while processing a single file.
func (c *Coordinator) reconcile(cand models.Candidate) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("run: reconcile panicked",
				slog.String("file", cand.Name), slog.String("panic", fmt.Sprint(p)))
			out = c.rec.Skip(cand.Name, eventlog.ReasonMtimeError)
		}
	}()
	return c.rec.Reconcile(cand.Path)
}

// Finalize appends a daily_log_finalized record for today's file unless one already
// exists. It reports whether a record was appended.
func (c *Coordinator) Finalize() (bool, error) {
	name := c.today()
	exists, err := c.log.Contains(eventlog.Marker(eventlog.EventDailyLogFinalized, name))
	if err != nil {
		return false, fmt.Errorf("finalize: %w", err)
	}
	if exists {
		c.logger.Debug("run: already finalized", slog.String("file", name))
		return false, nil
	}
	if err := c.log.Info(eventlog.EventDailyLogFinalized, name, nil); err != nil {
		return false, fmt.Errorf("finalize: %w", err)
	}
	return true, nil
}
