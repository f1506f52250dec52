package locator

import (
	"context"
	"time"

	"github.com/shehryarbajwa/webdriver-mini/internal/backend"
)

// DefaultPollInterval is how often an implicit wait re-runs a search.
const DefaultPollInterval = 50 * time.Millisecond

// SearchFunc performs one search attempt.
type SearchFunc func(ctx context.Context) ([]backend.NodeRef, error)

// Wait calls search until it returns a non-empty result, an error, or
// timeout elapses. The last attempt happens at the deadline, so an empty
// result is returned no earlier than timeout and no later than timeout plus
// one attempt. A zero timeout searches exactly once.
func Wait(ctx context.Context, timeout, interval time.Duration, search SearchFunc) ([]backend.NodeRef, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	for {
		nodes, err := search(ctx)
		if err != nil || len(nodes) > 0 {
			return nodes, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}

		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
