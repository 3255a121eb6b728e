// Package detector decides whether fetched content changed since the last
// successful check and whether that change should produce a notification.
package detector

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Kind is the condition gating notifications for a detected change.
type Kind string

const (
	KindChange   Kind = "change"
	KindContains Kind = "contains"
	KindMissing  Kind = "missing"
)

// Valid reports whether k is a known trigger kind.
func (k Kind) Valid() bool {
	switch k {
	case KindChange, KindContains, KindMissing:
		return true
	}
	return false
}

// NeedsText reports whether the trigger requires non-empty trigger text.
func (k Kind) NeedsText() bool {
	return k == KindContains || k == KindMissing
}

type Trigger struct {
	Kind Kind
	Text string
}

// Decision is the outcome of comparing new content against a stored fingerprint.
type Decision struct {
	Fingerprint string
	Baseline    bool
	Changed     bool
	Notify      bool
}

// Fingerprint returns the hex encoded SHA-256 of content.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Evaluate compares content with the previous fingerprint. An empty previous
// fingerprint marks a baseline check, which never notifies.
func Evaluate(previous, content string, trigger Trigger) Decision {
	d := Decision{Fingerprint: Fingerprint(content)}

	if previous == "" {
		d.Baseline = true
		return d
	}

	d.Changed = previous != d.Fingerprint
	if d.Changed {
		d.Notify = trigger.Matches(content)
	}
	return d
}

// Matches evaluates the trigger condition against content. Unknown kinds
// behave like KindChange.
func (t Trigger) Matches(content string) bool {
	switch t.Kind {
	case KindContains:
		return strings.Contains(content, t.Text)
	case KindMissing:
		return !strings.Contains(content, t.Text)
	default:
		return true
	}
}
