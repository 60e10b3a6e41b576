package shell

import (
	"context"
	"time"
)

// HandlerResult carries the value a command produced and how much retrying it took.
type HandlerResult[R any] struct {
	// Value is the zero value when the command failed.
	Value R

	// RetryAttempts is the number of attempts made (1 when the first attempt settled it).
	RetryAttempts int

	// TotalRetryDelay sums the backoff sleeps, excluding execution time.
	TotalRetryDelay time.Duration

	// LastErrorType is "none" on success, see ErrorType for the other values.
	LastErrorType string

	// RetriesExhausted is true when every attempt failed with a retryable error.
	RetriesExhausted bool
}

// NewSuccessResult builds the result of a command that succeeded, possibly after retries.
func NewSuccessResult[R any](value R, retryMetrics RetryMetrics) HandlerResult[R] {
	return HandlerResult[R]{
		Value:            value,
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}

// NewErrorResult builds the result of a failed command, keeping the retry metadata for observability.
func NewErrorResult[R any](retryMetrics RetryMetrics) HandlerResult[R] {
	var zero R

	return NewSuccessResult(zero, retryMetrics)
}

// HandleWithRetry runs fn under RetryWithExponentialBackoff and wraps its value and the retry
// metadata into a HandlerResult.
func HandleWithRetry[R any](ctx context.Context, fn func(ctx context.Context) (R, error), options ...RetryOption) (HandlerResult[R], error) {
	var value R

	retryMetrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		attemptValue, attemptErr := fn(retryCtx)
		if attemptErr != nil {
			return attemptErr
		}

		value = attemptValue

		return nil
	}, options...)

	if err != nil {
		return NewErrorResult[R](retryMetrics), err
	}

	return NewSuccessResult(value, retryMetrics), nil
}
