package delivery

import (
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"
)

// Strategy is one independent technique for reaching the composer's
// "ready to submit" state and firing the submission. Strategies are tried
// in slice order, each bounded by its own timeout, so that failure of one
// still leaves budget for the next. Reordering or adding a strategy is a
// data change in DefaultStrategies, not a control-flow rewrite.
type Strategy interface {
	Name() string

	// TryAcquire locates this strategy's input surface and submits the
	// pre-filled message through it. A timeout-class error means the
	// surface was not found in time and the next strategy should run.
	TryAcquire(page playwright.Page, timeout float64) error
}

// DefaultStrategies returns the fallback chain in priority order, from
// most semantic (composer focus + native line-submit key) to least
// semantic (icon marker resolved to its clickable ancestor). The web
// client's DOM and accessible labels are not contractually stable, so the
// layers are deliberately independent of each other.
func DefaultStrategies() []Strategy {
	return []Strategy{
		composerStrategy{},
		sendButtonStrategy{},
		sendIconStrategy{},
	}
}

// sendLabelPattern matches the send control's accessible name in the two
// locales the client is known to ship.
var sendLabelPattern = regexp.MustCompile(`(?i)^(send|enviar)$`)

// composerStrategy focuses the footer composer and submits with the
// platform's line-submit key. The selector is scoped to the conversation
// footer so the global search box, which is also a contenteditable
// textbox, can never match.
type composerStrategy struct{}

func (composerStrategy) Name() string { return "composer" }

func (composerStrategy) TryAcquire(page playwright.Page, timeout float64) error {
	box := page.Locator(`footer div[contenteditable="true"][role="textbox"]`).First()

	if err := box.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeout),
	}); err != nil {
		return fmt.Errorf("composer not visible: %w", err)
	}

	// A located-but-unfocused composer swallows the keypress; focus must
	// be forced before submitting.
	if err := box.Focus(playwright.LocatorFocusOptions{
		Timeout: playwright.Float(timeout),
	}); err != nil {
		return fmt.Errorf("composer focus: %w", err)
	}

	if err := page.Keyboard().Press("Enter"); err != nil {
		return fmt.Errorf("composer submit key: %w", err)
	}
	return nil
}

// sendButtonStrategy clicks the footer send control located by its
// accessible name.
type sendButtonStrategy struct{}

func (sendButtonStrategy) Name() string { return "send-button" }

func (sendButtonStrategy) TryAcquire(page playwright.Page, timeout float64) error {
	button := page.Locator("footer").GetByRole("button", playwright.LocatorGetByRoleOptions{
		Name: sendLabelPattern,
	}).First()

	if err := clickWithForceFallback(button, timeout); err != nil {
		return fmt.Errorf("send button: %w", err)
	}
	return nil
}

// sendIconStrategy locates the send icon marker and clicks its enclosing
// clickable ancestor. Icon markers have outlived several rounds of label
// and structure changes, which makes this the last-resort layer.
type sendIconStrategy struct{}

func (sendIconStrategy) Name() string { return "send-icon" }

func (sendIconStrategy) TryAcquire(page playwright.Page, timeout float64) error {
	icon := page.Locator(`footer span[data-icon="send"], footer span[data-icon="wds-ic-send-filled"]`).First()

	if err := icon.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeout),
	}); err != nil {
		return fmt.Errorf("send icon not visible: %w", err)
	}

	target := icon.Locator(`xpath=ancestor-or-self::*[self::button or @role="button"][1]`)
	if err := clickWithForceFallback(target, timeout); err != nil {
		return fmt.Errorf("send icon: %w", err)
	}
	return nil
}

// clickWithForceFallback clicks the locator directly and, if the direct
// click is intercepted or otherwise fails, retries once with a forced
// synthetic click against the same element. The timeout is split between
// the two attempts so the strategy as a whole stays within its budget.
func clickWithForceFallback(target playwright.Locator, timeout float64) error {
	half := timeout / 2

	directErr := target.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(half),
	})
	if directErr == nil {
		return nil
	}

	if forcedErr := target.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(half),
		Force:   playwright.Bool(true),
	}); forcedErr != nil {
		return fmt.Errorf("direct click failed (%v), forced click failed: %w", directErr, forcedErr)
	}
	return nil
}
