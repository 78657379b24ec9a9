// Package batch iterates the recipient table through the delivery engine
// against the single shared session, with progress reporting, cooperative
// cancellation, and partial-failure accounting.
package batch

import (
	"go.uber.org/zap"

	"github.com/zapdrive/zapdrive/pkg/delivery"
	"github.com/zapdrive/zapdrive/pkg/recipients"
)

// Deliverer is the delivery engine port. The runner never sends two records
// concurrently: the target page has one composer and one navigation
// context.
type Deliverer interface {
	Deliver(number, message string) delivery.Result
}

// Progress is invoked synchronously before each attempt so an external
// observer can render progress without the runner depending on any
// rendering technology.
type Progress func(index, total int, number string)

// Run is the ephemeral aggregate for one runner invocation.
type Run struct {
	Total     int
	Attempted int
	Succeeded int

	// Outcomes counts attempted records per terminal outcome.
	Outcomes map[delivery.Outcome]int

	// CancelledAt is the index of the first record skipped because of
	// cancellation, or -1 when the run completed.
	CancelledAt int
}

// Failed returns the number of attempted records that did not end Sent.
func (r Run) Failed() int { return r.Attempted - r.Succeeded }

// Cancelled reports whether the run stopped early.
func (r Run) Cancelled() bool { return r.CancelledAt >= 0 }

// Runner executes one batch at a time.
type Runner struct {
	logger *zap.Logger
}

// NewRunner creates a batch runner. The logger may be nil.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Run iterates records in store order, writing each returned outcome into
// the record in place. Cancellation is checked only between records;
// records not yet attempted keep their Pending status. Failed records never
// abort the run and are never retried automatically: re-running a failed
// subset is an explicit new batch over a filtered sheet.
func (r *Runner) Run(records []recipients.Record, d Deliverer, cancel *Flag, onProgress Progress) Run {
	run := Run{
		Total:       len(records),
		Outcomes:    make(map[delivery.Outcome]int),
		CancelledAt: -1,
	}

	for i := range records {
		if cancel != nil && cancel.IsSet() {
			run.CancelledAt = i
			r.logger.Info("batch cancelled",
				zap.Int("attempted", run.Attempted),
				zap.Int("remaining", run.Total-i),
			)
			break
		}

		record := &records[i]
		if onProgress != nil {
			onProgress(i, run.Total, record.Number)
		}

		result := d.Deliver(record.Number, record.Message)
		record.Status = result.Outcome
		record.Detail = result.Detail
		run.Attempted++
		run.Outcomes[result.Outcome]++
		if result.Outcome == delivery.OutcomeSent {
			run.Succeeded++
		}

		r.logger.Info("record processed",
			zap.Int("row", record.Row),
			zap.String("status", result.Outcome.String()),
		)
	}

	r.logger.Info("batch finished",
		zap.Int("total", run.Total),
		zap.Int("attempted", run.Attempted),
		zap.Int("succeeded", run.Succeeded),
		zap.Int("failed", run.Failed()),
	)
	return run
}
