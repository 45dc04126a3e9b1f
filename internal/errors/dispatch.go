package errors

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/cataloro/cataloro/internal/dispatch"
)

// FromDispatchError converts a dispatch failure into an envelope for locally
// synthesized responses. Backoff conditions become RATE_LIMITED with the
// remaining wait; anything else means the upstream was unreachable.
func FromDispatchError(ctx context.Context, err error, now time.Time) *errors.ErrorEnvelope {
	var (
		backoff   *dispatch.BackoffError
		exhausted *dispatch.RetriesExhaustedError
	)

	switch {
	case stderrors.As(err, &backoff):
		return rateLimitedEnvelope(ctx, err, backoff.Key, backoff.Until.Sub(now), 0)
	case stderrors.As(err, &exhausted):
		return rateLimitedEnvelope(ctx, err, exhausted.Key, exhausted.Until.Sub(now), exhausted.Attempts)
	default:
		return WrapUpstreamUnavailable(ctx, err, "marketplace upstream unreachable")
	}
}

func rateLimitedEnvelope(ctx context.Context, err error, endpoint string, wait time.Duration, attempts int) *errors.ErrorEnvelope {
	details := map[string]interface{}{
		"endpoint": endpoint,
	}
	if seconds := ceilSeconds(wait); seconds > 0 {
		details["retry_after_seconds"] = seconds
	}
	if attempts > 0 {
		details["attempts"] = attempts
	}

	envelope := errors.NewErrorEnvelope("RATE_LIMITED", "upstream rate limit: "+endpoint+" is backing off")
	envelope = envelope.WithCorrelationID(correlationID(ctx))
	envelope = withWrappedError(envelope, err)
	return envelope.WithDetails(details)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	seconds := int(d / time.Second)
	if d%time.Second != 0 {
		seconds++
	}
	return seconds
}
