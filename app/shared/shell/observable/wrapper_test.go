package observable_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell/observable"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	. "github.com/AntonStoeckl/library-circulation-go/testutil/observability/testdoubles"
)

type testCommand struct{ BookTitle string }

func (testCommand) CommandType() string { return "TestCommand" }

type testQuery struct{}

func (testQuery) QueryType() string { return "TestQuery" }

type commandHandlerStub struct {
	mu     sync.Mutex
	calls  []testCommand
	result shell.HandlerResult[string]
	err    error
}

func (h *commandHandlerStub) Handle(_ context.Context, command testCommand) (shell.HandlerResult[string], error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.calls = append(h.calls, command)

	return h.result, h.err
}

type queryHandlerStub struct {
	result []string
	err    error
}

func (h queryHandlerStub) Handle(_ context.Context, _ testQuery) ([]string, error) {
	return h.result, h.err
}

func newObservedCommand(t *testing.T, handler *commandHandlerStub) (
	*observable.CommandWrapper[testCommand, string],
	*MetricsCollectorSpy,
	*TracingCollectorSpy,
	*ContextualLoggerSpy,
) {
	t.Helper()

	metricsSpy := NewMetricsCollectorSpy(true)
	tracingSpy := NewTracingCollectorSpy(true)
	loggerSpy := NewContextualLoggerSpy(true)

	wrapper, err := observable.NewCommandWrapper[testCommand, string](
		handler,
		observable.WithCommandMetrics[testCommand, string](metricsSpy),
		observable.WithCommandTracing[testCommand, string](tracingSpy),
		observable.WithCommandContextualLogging[testCommand, string](loggerSpy),
	)
	require.NoError(t, err)

	return wrapper, metricsSpy, tracingSpy, loggerSpy
}

func Test_CommandWrapper_Handle_Success(t *testing.T) {
	// arrange
	handler := &commandHandlerStub{result: shell.HandlerResult[string]{Value: "loan-1", RetryAttempts: 1, LastErrorType: "none"}}
	wrapper, metricsSpy, tracingSpy, loggerSpy := newObservedCommand(t, handler)
	command := testCommand{BookTitle: "Earthsea"}

	// act
	result, err := wrapper.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "loan-1", result.Value)
	assert.Equal(t, []testCommand{command}, handler.calls)

	assert.True(t, metricsSpy.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).
		WithLabel("command_type", "TestCommand").
		WithStatus("success").
		Assert())
	assert.True(t, metricsSpy.HasDurationRecordForMetric(shell.CommandHandlerDurationMetric).
		WithStatus("success").
		Assert())
	assert.False(t, metricsSpy.HasCounterRecordForMetric(shell.CommandHandlerRetriesMetric).Assert())

	assert.True(t, tracingSpy.HasSpanRecordForName(shell.SpanNameCommandHandle).
		WithStatus("success").
		WithStartAttribute("command_type", "TestCommand").
		Assert())

	assert.True(t, loggerSpy.HasRecordContaining("debug", shell.LogMsgCommandStarted))
	assert.True(t, loggerSpy.HasRecordContaining("info", shell.LogMsgCommandCompleted))
}

func Test_CommandWrapper_Handle_Rejection(t *testing.T) {
	// arrange
	handler := &commandHandlerStub{
		result: shell.HandlerResult[string]{RetryAttempts: 1, LastErrorType: "conflict"},
		err:    circulation.ErrNoCopiesAvailable,
	}
	wrapper, metricsSpy, tracingSpy, loggerSpy := newObservedCommand(t, handler)

	// act
	_, err := wrapper.Handle(context.Background(), testCommand{})

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoCopiesAvailable)
	assert.True(t, metricsSpy.HasCounterRecordForMetric(shell.CommandHandlerRejectedMetric).
		WithStatus("rejected").
		Assert())
	assert.True(t, tracingSpy.HasSpanRecordForName(shell.SpanNameCommandHandle).
		WithStatus("rejected").
		WithEndAttribute("error_kind", "conflict").
		Assert())
	assert.True(t, loggerSpy.HasRecordContaining("info", shell.LogMsgCommandRejected))
	assert.Empty(t, loggerSpy.GetRecordsForLevel("error"))
}

func Test_CommandWrapper_Handle_Failure(t *testing.T) {
	handler := &commandHandlerStub{err: errors.New("database on fire")}
	wrapper, metricsSpy, _, loggerSpy := newObservedCommand(t, handler)

	_, err := wrapper.Handle(context.Background(), testCommand{})

	assert.Error(t, err)
	assert.True(t, metricsSpy.HasCounterRecordForMetric(shell.CommandHandlerCallsMetric).WithStatus("error").Assert())
	assert.True(t, loggerSpy.HasRecordContaining("error", shell.LogMsgCommandFailed))
}

func Test_CommandWrapper_Handle_RecordsRetries(t *testing.T) {
	handler := &commandHandlerStub{
		result: shell.HandlerResult[string]{
			RetryAttempts:    4,
			TotalRetryDelay:  175 * time.Millisecond,
			LastErrorType:    "transient",
			RetriesExhausted: true,
		},
		err: errors.Join(errors.New("lock timeout"), circulation.ErrTransientStore),
	}
	wrapper, metricsSpy, _, _ := newObservedCommand(t, handler)

	_, err := wrapper.Handle(context.Background(), testCommand{})

	assert.ErrorIs(t, err, circulation.ErrTransientStore)
	assert.True(t, metricsSpy.HasCounterRecordForMetric(shell.CommandHandlerRetriesMetric).
		WithLabel("attempt_number", "3").
		WithLabel("error_type", "transient").
		Assert())
	assert.True(t, metricsSpy.HasDurationRecordForMetric(shell.CommandHandlerRetryDelayMetric).
		WithLabel("command_type", "TestCommand").
		Assert())
	assert.True(t, metricsSpy.HasCounterRecordForMetric(shell.CommandHandlerMaxRetriesReachedMetric).Assert())
}

func Test_CommandWrapper_Handle_Canceled(t *testing.T) {
	handler := &commandHandlerStub{err: context.Canceled}
	wrapper, metricsSpy, _, _ := newObservedCommand(t, handler)

	_, err := wrapper.Handle(context.Background(), testCommand{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, metricsSpy.HasCounterRecordForMetric(shell.CommandHandlerCanceledMetric).Assert())
}

func Test_CommandWrapper_WithoutObservability(t *testing.T) {
	handler := &commandHandlerStub{result: shell.HandlerResult[string]{Value: "ok"}}

	wrapper, err := observable.NewCommandWrapper[testCommand, string](handler)
	require.NoError(t, err)

	result, err := wrapper.Handle(context.Background(), testCommand{})

	assert.NoError(t, err)
	assert.Equal(t, "ok", result.Value)
}

func Test_QueryWrapper_Handle(t *testing.T) {
	// setup
	metricsSpy := NewMetricsCollectorSpy(true)
	tracingSpy := NewTracingCollectorSpy(true)
	loggerSpy := NewContextualLoggerSpy(true)

	newWrapper := func(handler queryHandlerStub) *observable.QueryWrapper[testQuery, []string] {
		wrapper, err := observable.NewQueryWrapper[testQuery, []string](
			handler,
			observable.WithQueryMetrics[testQuery, []string](metricsSpy),
			observable.WithQueryTracing[testQuery, []string](tracingSpy),
			observable.WithQueryContextualLogging[testQuery, []string](loggerSpy),
		)
		require.NoError(t, err)

		return wrapper
	}

	t.Run("success", func(t *testing.T) {
		result, err := newWrapper(queryHandlerStub{result: []string{"a", "b"}}).Handle(context.Background(), testQuery{})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, result)
		assert.True(t, metricsSpy.HasDurationRecordForMetric(shell.QueryHandlerDurationMetric).
			WithLabel("query_type", "TestQuery").
			WithStatus("success").
			Assert())
		assert.True(t, tracingSpy.HasSpanRecordForName(shell.SpanNameQueryHandle).WithStatus("success").Assert())
		assert.True(t, loggerSpy.HasRecordContaining("info", shell.LogMsgQueryCompleted))
	})

	t.Run("timeout", func(t *testing.T) {
		metricsSpy.Reset()

		_, err := newWrapper(queryHandlerStub{err: context.DeadlineExceeded}).Handle(context.Background(), testQuery{})

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, metricsSpy.HasCounterRecordForMetric(shell.QueryHandlerTimeoutMetric).WithStatus("timeout").Assert())
		assert.True(t, loggerSpy.HasRecordContaining("error", shell.LogMsgQueryFailed))
	})
}
