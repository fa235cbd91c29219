// Package wallet bridges the flow to the platform wallet app.
package wallet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// capability describes how a platform reaches its wallet. Platforms absent
// from the table have no wallet integration and are never probed.
type capability struct {
	openURL string
}

var capabilities = map[string]capability{
	// Private URL scheme into the system wallet.
	"ios": {openURL: "shoebox://"},
	// Public payment-app URL; resolves to the app when installed.
	"android": {openURL: "https://pay.google.com/gp/w/u/0/home"},
}

// Probe is the platform primitive behind availability checks and opens.
type Probe interface {
	CanOpen(ctx context.Context, url string) (bool, error)
	Open(ctx context.Context, url string) error
}

// Bridge checks for and opens the platform wallet. It holds no state beyond
// its configuration; every call probes fresh.
type Bridge struct {
	probe    Probe
	out      io.Writer
	platform string
}

// OpenResult is the outcome of an Open attempt. Failures are carried in the
// Error field, never as a Go error.
type OpenResult struct {
	Platform string
	Error    string
	Success  bool
}

// NewBridge creates a bridge for the given platform identifier.
func NewBridge(platform string, probe Probe) *Bridge {
	return &Bridge{
		platform: platform,
		probe:    probe,
		out:      os.Stdout,
	}
}

// SetOutput redirects fallback prompts, used by tests.
func (b *Bridge) SetOutput(w io.Writer) {
	b.out = w
}

// IsAvailable reports whether a wallet hand-off is possible on this platform.
// Unsupported platforms are unconditionally unavailable and never probed.
func (b *Bridge) IsAvailable(ctx context.Context) bool {
	c, ok := capabilities[b.platform]
	if !ok {
		return false
	}

	canOpen, err := b.probe.CanOpen(ctx, c.openURL)
	if err != nil {
		slog.Debug("Wallet probe failed", "platform", b.platform, "error", err)
		return false
	}
	return canOpen
}

// Open attempts the wallet hand-off. It succeeds only when both the
// capability probe and the platform open call succeed.
func (b *Bridge) Open(ctx context.Context) OpenResult {
	c, ok := capabilities[b.platform]
	if !ok {
		return OpenResult{
			Platform: b.platform,
			Error:    fmt.Sprintf("no wallet integration on %q", b.platform),
		}
	}

	canOpen, err := b.probe.CanOpen(ctx, c.openURL)
	if err != nil {
		return OpenResult{Platform: b.platform, Error: err.Error()}
	}
	if !canOpen {
		return OpenResult{Platform: b.platform, Error: "wallet app not installed"}
	}

	if err := b.probe.Open(ctx, c.openURL); err != nil {
		return OpenResult{Platform: b.platform, Error: err.Error()}
	}

	slog.Info("Opened platform wallet", "platform", b.platform)
	return OpenResult{Platform: b.platform, Success: true}
}

// ShowFallback displays exactly one manual-payment prompt, naming the card
// when one is known.
func (b *Bridge) ShowFallback(cardName string) {
	card := "your recommended card"
	if cardName != "" {
		card = cardName
	}
	fmt.Fprintf(b.out, "Wallet unavailable: open your payment app and pay with %s.\n", card)
}
