package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric tracks total command handler calls.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerRejectedMetric tracks commands refused by a business rule (conflict, not found, validation).
	CommandHandlerRejectedMetric = "commandhandler_rejected_operations_total"

	// CommandHandlerCanceledMetric tracks canceled operations.
	CommandHandlerCanceledMetric = "commandhandler_canceled_operations_total"

	// CommandHandlerTimeoutMetric tracks timed out operations.
	CommandHandlerTimeoutMetric = "commandhandler_timeout_operations_total"

	// CommandHandlerRetriesMetric tracks commands that needed retries.
	//
	// Labels:
	//   - command_type
	//   - attempt_number: retries needed (1, 2, 3)
	//   - error_type: error that caused the last retry
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks the total backoff delay per command.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks commands that exhausted their retries.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks total query handler calls.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerCanceledMetric tracks canceled query operations.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric tracks timed out query operations.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"

	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
	StatusCanceled = "canceled"
	StatusTimeout  = "timeout"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandRejected  = "command handler rejected"
	LogMsgCommandFailed    = "command handler failed"
	LogMsgQueryStarted     = "query handler started"
	LogMsgQueryCompleted   = "query handler completed"
	LogMsgQueryFailed      = "query handler failed"

	LogAttrCommandType   = "command_type"
	LogAttrQueryType     = "query_type"
	LogAttrStatus        = "status"
	LogAttrDurationMS    = "duration_ms"
	LogAttrErrorKind     = "error_kind"
	LogAttrError         = "error"
	LogAttrAttemptNumber = "attempt_number"
	LogAttrErrorType     = "error_type"

	SpanNameCommandHandle = "commandhandler.handle"
	SpanNameQueryHandle   = "queryhandler.handle"
)

// Aliases of the circulation observability interfaces, so features only import shell.
type (
	MetricsCollector           = circulation.MetricsCollector
	ContextualMetricsCollector = circulation.ContextualMetricsCollector
	TracingCollector           = circulation.TracingCollector
	SpanContext                = circulation.SpanContext
	ContextualLogger           = circulation.ContextualLogger
	Logger                     = circulation.Logger
)

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType:   commandType,
		LogAttrAttemptNumber: strconv.Itoa(attemptNumber),
		LogAttrErrorType:     errorType,
	}
}

// StatusOf maps a handler error to the status label used in metrics, spans and logs.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case IsCancellationError(err):
		return StatusCanceled
	case IsTimeoutError(err):
		return StatusTimeout
	case IsRejection(err):
		return StatusRejected
	default:
		return StatusError
	}
}

// IsRejection reports whether an error is a business refusal rather than a malfunction.
func IsRejection(err error) bool {
	switch circulation.KindOf(err) {
	case circulation.KindValidation, circulation.KindNotFound, circulation.KindConflict:
		return true
	default:
		return false
	}
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// RecordCommandMetrics records duration and call count of a command, plus the counter matching its status.
func RecordCommandMetrics(ctx context.Context, collector MetricsCollector, commandType string, status string, duration time.Duration) {
	if collector == nil {
		return
	}

	labels := BuildCommandLabels(commandType, status)
	recordDuration(ctx, collector, CommandHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, CommandHandlerCallsMetric, labels)

	switch status {
	case StatusRejected:
		incrementCounter(ctx, collector, CommandHandlerRejectedMetric, labels)
	case StatusCanceled:
		incrementCounter(ctx, collector, CommandHandlerCanceledMetric, labels)
	case StatusTimeout:
		incrementCounter(ctx, collector, CommandHandlerTimeoutMetric, labels)
	}
}

// RecordRetryMetrics records retries and backoff of a command from its HandlerResult metadata.
func RecordRetryMetrics(ctx context.Context, collector MetricsCollector, commandType string, attempts int, totalDelay time.Duration, lastErrorType string, exhausted bool) {
	if collector == nil {
		return
	}

	if attempts > 1 {
		incrementCounter(ctx, collector, CommandHandlerRetriesMetric, BuildRetryLabels(commandType, attempts-1, lastErrorType))
		recordDuration(ctx, collector, CommandHandlerRetryDelayMetric, totalDelay, map[string]string{LogAttrCommandType: commandType})
	}

	if exhausted {
		incrementCounter(ctx, collector, CommandHandlerMaxRetriesReachedMetric, map[string]string{
			LogAttrCommandType: commandType,
			LogAttrErrorType:   lastErrorType,
		})
	}
}

// RecordQueryMetrics records duration and call count of a query, plus the counter matching its status.
func RecordQueryMetrics(ctx context.Context, collector MetricsCollector, queryType string, status string, duration time.Duration) {
	if collector == nil {
		return
	}

	labels := BuildQueryLabels(queryType, status)
	recordDuration(ctx, collector, QueryHandlerDurationMetric, duration, labels)
	incrementCounter(ctx, collector, QueryHandlerCallsMetric, labels)

	switch status {
	case StatusCanceled:
		incrementCounter(ctx, collector, QueryHandlerCanceledMetric, labels)
	case StatusTimeout:
		incrementCounter(ctx, collector, QueryHandlerTimeoutMetric, labels)
	}
}

func recordDuration(ctx context.Context, collector MetricsCollector, metric string, duration time.Duration, labels map[string]string) {
	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

func incrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// StartCommandSpan starts a span for a command. Without a tracing collector it returns ctx and a nil span.
func StartCommandSpan(ctx context.Context, tracingCollector TracingCollector, commandType string) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanNameCommandHandle, map[string]string{LogAttrCommandType: commandType})
}

// StartQuerySpan starts a span for a query. Without a tracing collector it returns ctx and a nil span.
func StartQuerySpan(ctx context.Context, tracingCollector TracingCollector, queryType string) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, SpanNameQueryHandle, map[string]string{LogAttrQueryType: queryType})
}

// FinishSpan completes a command or query span with its outcome.
func FinishSpan(tracingCollector TracingCollector, span SpanContext, status string, duration time.Duration, err error) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
		attrs[LogAttrErrorKind] = string(circulation.KindOf(err))
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// LogStart logs the beginning of command or query processing.
func LogStart(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, typeAttr string, typeName string) {
	if contextualLogger != nil {
		contextualLogger.DebugContext(ctx, msg, typeAttr, typeName)
	} else if logger != nil {
		logger.Debug(msg, typeAttr, typeName)
	}
}

// LogOutcome logs the end of command or query processing.
// Rejections are logged at info, failures at error, and everything else at info.
func LogOutcome(
	ctx context.Context,
	logger Logger,
	contextualLogger ContextualLogger,
	typeAttr string,
	typeName string,
	msgs OutcomeMessages,
	duration time.Duration,
	err error,
) {
	args := []any{typeAttr, typeName, LogAttrStatus, StatusOf(err), LogAttrDurationMS, ToMilliseconds(duration)}

	switch {
	case err == nil:
		logInfo(ctx, logger, contextualLogger, msgs.Completed, args...)
	case IsRejection(err):
		args = append(args, LogAttrErrorKind, string(circulation.KindOf(err)), LogAttrError, err.Error())
		logInfo(ctx, logger, contextualLogger, msgs.Rejected, args...)
	default:
		args = append(args, LogAttrErrorKind, string(circulation.KindOf(err)), LogAttrError, err.Error())
		if contextualLogger != nil {
			contextualLogger.ErrorContext(ctx, msgs.Failed, args...)
		} else if logger != nil {
			logger.Error(msgs.Failed, args...)
		}
	}
}

// OutcomeMessages are the log messages LogOutcome picks from.
type OutcomeMessages struct {
	Completed string
	Rejected  string
	Failed    string
}

var (
	CommandOutcomeMessages = OutcomeMessages{Completed: LogMsgCommandCompleted, Rejected: LogMsgCommandRejected, Failed: LogMsgCommandFailed}
	QueryOutcomeMessages   = OutcomeMessages{Completed: LogMsgQueryCompleted, Rejected: LogMsgQueryFailed, Failed: LogMsgQueryFailed}
)

func logInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Info(msg, args...)
	}
}
