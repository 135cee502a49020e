package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dpax/linkedin-feed/internal/entity"
)

// ErrEmptyContent is returned when a source answers with an empty body.
var ErrEmptyContent = errors.New("empty response body")

// Fetcher retrieves the raw content of one candidate.
type Fetcher interface {
	Fetch(ctx context.Context, candidate entity.Candidate) ([]byte, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Attempt is the outcome of trying one candidate. Err is nil on success.
type Attempt struct {
	URL string
	Err error
}

// AcquireError lists why every candidate failed.
type AcquireError struct {
	Attempts []Attempt
}

func (e *AcquireError) Error() string {
	lines := make([]string, 0, len(e.Attempts))

	for _, a := range e.Attempts {
		lines = append(lines, fmt.Sprintf("%s -> %v", a.URL, a.Err))
	}

	return strings.Join(lines, "\n")
}

func (e *AcquireError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))

	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}

	return errs
}

// Options tune Acquire.
type Options struct {
	// Timeout bounds each candidate request. Zero means DefaultTimeout.
	Timeout time.Duration
	// OnAttempt, when set, observes every attempt.
	OnAttempt func(Attempt)
}

// Acquire tries candidates strictly in order and returns the first one whose
// content parse accepts. parse rejecting the content counts as a failed
// attempt and the next candidate is tried.
func Acquire[T any](
	ctx context.Context,
	f Fetcher,
	candidates []entity.Candidate,
	parse func([]byte) (T, error),
	opts Options,
) (T, entity.Candidate, error) {
	var zero T

	timeout := opts.Timeout

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	acquireErr := &AcquireError{}

	for _, candidate := range candidates {
		result, err := attempt(ctx, f, candidate, parse, timeout)

		if opts.OnAttempt != nil {
			opts.OnAttempt(Attempt{URL: candidate.URL, Err: err})
		}

		if err == nil {
			return result, candidate, nil
		}

		acquireErr.Attempts = append(acquireErr.Attempts, Attempt{URL: candidate.URL, Err: err})

		if ctx.Err() != nil {
			break
		}
	}

	if len(acquireErr.Attempts) == 0 {
		return zero, entity.Candidate{}, errors.New("no source candidates configured")
	}

	return zero, entity.Candidate{}, acquireErr
}

func attempt[T any](
	ctx context.Context,
	f Fetcher,
	candidate entity.Candidate,
	parse func([]byte) (T, error),
	timeout time.Duration,
) (T, error) {
	var zero T

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	content, err := f.Fetch(fetchCtx, candidate)

	if err != nil {
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, fmt.Errorf("timed out after %s: %w", timeout, err)
		}

		return zero, err
	}

	if len(strings.TrimSpace(string(content))) == 0 {
		return zero, ErrEmptyContent
	}

	return parse(content)
}
