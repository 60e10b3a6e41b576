package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

func Test_HandleWithRetry_ReturnsTheValueOfTheSuccessfulAttempt(t *testing.T) {
	attempt := 0

	result, err := HandleWithRetry(context.Background(), func(_ context.Context) (int, error) {
		attempt++
		if attempt == 1 {
			return -1, errLockTimeout
		}

		return attempt * 10, nil
	}, WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 20, result.Value)
	assert.Equal(t, 2, result.RetryAttempts)
	assert.Equal(t, "none", result.LastErrorType)
}

func Test_HandleWithRetry_Failure(t *testing.T) {
	result, err := HandleWithRetry(context.Background(), func(_ context.Context) (string, error) {
		return "partial", errors.Join(errors.New("no copies"), circulation.ErrNoCopiesAvailable)
	})

	assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)
	assert.Empty(t, result.Value)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, "conflict", result.LastErrorType)
}
