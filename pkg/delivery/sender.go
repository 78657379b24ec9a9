package delivery

import (
	"errors"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// maxDetailLen bounds the diagnostic excerpt kept for unclassified
// failures. The status column carries a short hint, never a stack.
const maxDetailLen = 50

// Result is the classified outcome of one delivery attempt. Detail is only
// populated for UnknownError.
type Result struct {
	Outcome Outcome
	Detail  string
}

// Options configures a Sender. Zero values fall back to conservative
// defaults at construction.
type Options struct {
	// BaseURL is the root URL of the messaging web client.
	BaseURL string

	// NavigateTimeout bounds each deep-link navigation.
	NavigateTimeout time.Duration

	// ComposerTimeout is the overall budget for the fallback chain; each
	// strategy gets an equal share so the chain never exceeds it.
	ComposerTimeout time.Duration

	// PostSendDelay is the settle delay after a successful submit.
	PostSendDelay time.Duration

	// Strategies overrides the fallback chain. Defaults to
	// DefaultStrategies.
	Strategies []Strategy
}

// Sender drives the delivery sequence for single records against one shared
// page. It keeps no state between records beyond the page handle itself.
type Sender struct {
	page       playwright.Page
	baseURL    string
	navTimeout time.Duration
	composer   time.Duration
	settle     time.Duration
	strategies []Strategy
	logger     *zap.Logger

	// sleep is a seam for tests; production uses time.Sleep.
	sleep func(time.Duration)
}

// NewSender creates a delivery engine bound to the given page.
func NewSender(page playwright.Page, opts Options, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies()
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = 60 * time.Second
	}
	if opts.ComposerTimeout <= 0 {
		opts.ComposerTimeout = 15 * time.Second
	}

	return &Sender{
		page:       page,
		baseURL:    opts.BaseURL,
		navTimeout: opts.NavigateTimeout,
		composer:   opts.ComposerTimeout,
		settle:     opts.PostSendDelay,
		strategies: opts.Strategies,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Deliver runs the full sequence for one record: validate, navigate the
// deep link, acquire an input surface through the fallback chain, and wait
// for the page to settle. The returned outcome is always terminal; Deliver
// never panics the batch and never returns an error.
func (s *Sender) Deliver(number, message string) Result {
	att, failure, ok := Validate(number, message)
	if !ok {
		return Result{Outcome: failure}
	}

	link := DeepLink(s.baseURL, att.Digits, att.Text)
	if _, err := s.page.Goto(link, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.navTimeout.Milliseconds())),
	}); err != nil {
		s.logger.Warn("navigation failed",
			zap.String("number", att.Digits),
			zap.Error(err),
		)
		return s.classify(err)
	}

	if err := s.acquire(); err != nil {
		return s.classify(err)
	}

	// The settle delay lets the remote page register the submission before
	// the next navigation tears the composer down. It is not a receipt.
	if s.settle > 0 {
		s.sleep(s.settle)
	}
	return Result{Outcome: OutcomeSent}
}

// acquire walks the fallback chain in order. Timeout-class failures move on
// to the next strategy; any other automation-engine failure aborts the
// chain immediately since the session itself is suspect.
func (s *Sender) acquire() error {
	perStrategy := float64(s.composer.Milliseconds()) / float64(len(s.strategies))

	var lastErr error
	for _, strategy := range s.strategies {
		err := strategy.TryAcquire(s.page, perStrategy)
		if err == nil {
			s.logger.Debug("input surface acquired",
				zap.String("strategy", strategy.Name()),
			)
			return nil
		}

		if !isTimeout(err) {
			return err
		}

		s.logger.Debug("strategy timed out, falling back",
			zap.String("strategy", strategy.Name()),
		)
		lastErr = err
	}
	return lastErr
}

// classify maps an automation-engine failure onto the outcome taxonomy.
func (s *Sender) classify(err error) Result {
	if isTimeout(err) {
		return Result{Outcome: OutcomeTimeout}
	}

	var pwErr *playwright.Error
	if errors.As(err, &pwErr) || errors.Is(err, playwright.ErrTargetClosed) {
		return Result{Outcome: OutcomeTransportError}
	}

	return Result{
		Outcome: OutcomeUnknownError,
		Detail:  excerpt(err.Error(), maxDetailLen),
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, playwright.ErrTimeout)
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
