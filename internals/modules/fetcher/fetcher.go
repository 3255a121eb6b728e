// Package fetcher obtains the content of a monitored page, optionally with a
// screenshot. A fetch either yields usable content or an error; pages still
// showing an anti-bot interstitial count as failures.
package fetcher

import (
	"context"
	"errors"
	"strings"
	"time"

	"pagewatch/internals/modules/monitor"

	"github.com/google/uuid"
)

var ErrChallenge = errors.New("challenge page still present")

type Request struct {
	MonitorID       uuid.UUID
	URL             string
	Selector        string
	Headers         map[string]string
	WaitUntil       string
	WaitDelay       time.Duration
	WaitForSelector string
}

// Result carries extracted content and the name of a saved artifact, if any.
type Result struct {
	Content  string
	Artifact string
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Result, error)
}

// ArtifactSaver persists screenshot bytes under a name.
type ArtifactSaver interface {
	Save(name string, data []byte) error
}

// RequestFor builds the fetch request for a monitor.
func RequestFor(m *monitor.Monitor) Request {
	return Request{
		MonitorID:       m.ID,
		URL:             m.URL,
		Selector:        m.Selector,
		Headers:         m.Headers,
		WaitUntil:       m.WaitUntil,
		WaitDelay:       time.Duration(m.WaitDelayMs) * time.Millisecond,
		WaitForSelector: m.WaitForSelector,
	}
}

// IsChallenge detects the common "checking your browser" interstitials.
func IsChallenge(title, html string) bool {
	return strings.Contains(title, "Just a moment") || strings.Contains(html, "challenge-platform")
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
