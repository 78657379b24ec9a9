package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdrive/zapdrive/pkg/delivery"
	"github.com/zapdrive/zapdrive/pkg/recipients"
)

// fakeDeliverer scripts per-number results and can trip the cancellation
// flag mid-run to simulate a user pressing cancel while a send is in
// flight.
type fakeDeliverer struct {
	results     map[string]delivery.Result
	calls       []string
	cancelAfter int
	cancel      *Flag
}

func (f *fakeDeliverer) Deliver(number, message string) delivery.Result {
	f.calls = append(f.calls, number)
	if f.cancel != nil && len(f.calls) == f.cancelAfter {
		f.cancel.Set()
	}
	if result, ok := f.results[number]; ok {
		return result
	}
	return delivery.Result{Outcome: delivery.OutcomeSent}
}

// validatingDeliverer reproduces the engine's local-validation short
// circuit and treats every valid record as a transport failure, simulating
// a batch against an unreachable environment.
type validatingDeliverer struct{}

func (validatingDeliverer) Deliver(number, message string) delivery.Result {
	if _, failure, ok := delivery.Validate(number, message); !ok {
		return delivery.Result{Outcome: failure}
	}
	return delivery.Result{Outcome: delivery.OutcomeTransportError}
}

func makeRecords(numbers ...string) []recipients.Record {
	records := make([]recipients.Record, len(numbers))
	for i, number := range numbers {
		records[i] = recipients.Record{
			Number:  number,
			Message: "hello",
			Status:  delivery.OutcomePending,
			Row:     i + 2,
		}
	}
	return records
}

func TestRunProcessesAllRecords(t *testing.T) {
	records := makeRecords("5511999990001", "5511999990002", "5511999990003")
	d := &fakeDeliverer{results: map[string]delivery.Result{
		"5511999990002": {Outcome: delivery.OutcomeTimeout},
	}}

	run := NewRunner(nil).Run(records, d, &Flag{}, nil)

	assert.Equal(t, 3, run.Total)
	assert.Equal(t, 3, run.Attempted)
	assert.Equal(t, 2, run.Succeeded)
	assert.Equal(t, 1, run.Failed())
	assert.False(t, run.Cancelled())
	assert.Equal(t, 2, run.Outcomes[delivery.OutcomeSent])
	assert.Equal(t, 1, run.Outcomes[delivery.OutcomeTimeout])

	assert.Equal(t, delivery.OutcomeSent, records[0].Status)
	assert.Equal(t, delivery.OutcomeTimeout, records[1].Status)
	assert.Equal(t, delivery.OutcomeSent, records[2].Status)
}

func TestRunCancellationAtRecordBoundary(t *testing.T) {
	records := makeRecords(
		"5511999990001", "5511999990002", "5511999990003",
		"5511999990004", "5511999990005",
	)

	cancel := &Flag{}
	// Cancellation fires while record 2 (index 1) is in flight; that send
	// must complete, and everything after it must stay Pending.
	d := &fakeDeliverer{cancelAfter: 2, cancel: cancel}

	run := NewRunner(nil).Run(records, d, cancel, nil)

	require.Equal(t, []string{"5511999990001", "5511999990002"}, d.calls)
	assert.Equal(t, 2, run.Attempted)
	assert.Equal(t, 2, run.CancelledAt)
	assert.True(t, run.Cancelled())

	for i := 0; i < 2; i++ {
		assert.True(t, records[i].Status.Terminal(), "record %d should be terminal", i)
	}
	for i := 2; i < len(records); i++ {
		assert.Equal(t, delivery.OutcomePending, records[i].Status, "record %d should stay pending", i)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	records := makeRecords("5511999990001", "5511999990002")
	cancel := &Flag{}
	cancel.Set()
	d := &fakeDeliverer{}

	run := NewRunner(nil).Run(records, d, cancel, nil)

	assert.Empty(t, d.calls)
	assert.Equal(t, 0, run.Attempted)
	assert.Equal(t, 0, run.CancelledAt)
}

func TestRunProgressCallback(t *testing.T) {
	records := makeRecords("5511999990001", "5511999990002")

	type call struct {
		index, total int
		number       string
	}
	var calls []call
	onProgress := func(index, total int, number string) {
		calls = append(calls, call{index, total, number})
	}

	NewRunner(nil).Run(records, &fakeDeliverer{}, nil, onProgress)

	require.Len(t, calls, 2)
	assert.Equal(t, call{0, 2, "5511999990001"}, calls[0])
	assert.Equal(t, call{1, 2, "5511999990002"}, calls[1])
}

func TestRunNilCancelAndProgress(t *testing.T) {
	records := makeRecords("5511999990001")

	run := NewRunner(nil).Run(records, &fakeDeliverer{}, nil, nil)

	assert.Equal(t, 1, run.Attempted)
}

func TestRunEmptyBatch(t *testing.T) {
	run := NewRunner(nil).Run(nil, &fakeDeliverer{}, &Flag{}, nil)

	assert.Equal(t, 0, run.Total)
	assert.Equal(t, 0, run.Attempted)
	assert.False(t, run.Cancelled())
}

func TestRunMixedValidationScenario(t *testing.T) {
	records := []recipients.Record{
		{Number: "5511999999999", Message: "Hi\nthere", Status: delivery.OutcomePending, Row: 2},
		{Number: "123", Message: "x", Status: delivery.OutcomePending, Row: 3},
		{Number: "5511888888888", Message: "", Status: delivery.OutcomePending, Row: 4},
	}

	run := NewRunner(nil).Run(records, validatingDeliverer{}, &Flag{}, nil)

	// The first record's exact outcome depends on the environment, but it
	// can never be a validation failure.
	assert.NotEqual(t, delivery.OutcomeInvalidNumber, records[0].Status)
	assert.NotEqual(t, delivery.OutcomeEmptyMessage, records[0].Status)
	assert.True(t, records[0].Status.Terminal())

	assert.Equal(t, delivery.OutcomeInvalidNumber, records[1].Status)
	assert.Equal(t, delivery.OutcomeEmptyMessage, records[2].Status)
	assert.Equal(t, 3, run.Attempted)
	assert.Equal(t, 0, run.Succeeded)
	assert.Equal(t, 1, run.Outcomes[delivery.OutcomeInvalidNumber])
	assert.Equal(t, 1, run.Outcomes[delivery.OutcomeEmptyMessage])
}

func TestFlag(t *testing.T) {
	flag := &Flag{}
	assert.False(t, flag.IsSet())

	flag.Set()
	assert.True(t, flag.IsSet())

	flag.Set()
	assert.True(t, flag.IsSet())
}
