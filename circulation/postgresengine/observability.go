package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

const (
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitFailed       = "failed to commit transaction"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "circulation store operation: "
	logMsgOperationRejected  = "circulation store operation rejected: "
	logMsgOperationTransient = "circulation store operation hit a transient failure: "
	logMsgOperationFailed    = "circulation store operation failed: "
	logAttrError             = "error"
	logAttrQuery             = "query"
	logAttrAction            = "action"
	logAttrDurationMS        = "duration_ms"
	logAttrErrorKind         = "error_kind"

	metricOperationDuration = "circulation_store_operation_duration_seconds"
	metricOperationCalls    = "circulation_store_operations_total"
	metricDatabaseErrors    = "circulation_store_database_errors_total"
	metricConflicts         = "circulation_store_conflicts_total"
	metricRowsReturned      = "circulation_store_rows_returned"

	labelOperation = "operation"
	labelStatus    = "status"
	labelErrorKind = "error_kind"

	spanNamePrefix     = "circulation."
	spanAttrOperation  = "operation"
	spanAttrErrorKind  = "error_kind"
	spanAttrDurationMS = "duration_ms"
	spanAttrRowCount   = "row_count"

	statusSuccess = "success"
	statusError   = "error"
)

// Operation names used for logs, metrics and spans.
const (
	operationCreateSchema      = "create_schema"
	operationAddBook           = "add_book"
	operationGetBook           = "get_book"
	operationEditBook          = "edit_book"
	operationUpdateCopiesTotal = "update_copies_total"
	operationDeleteBook        = "delete_book"
	operationSearchBooks       = "search_books"
	operationGetLoan           = "get_loan"
	operationListLoans         = "list_loans"
	operationAllLoans          = "all_loans"
	operationCreateLoan        = "create_loan"
	operationReturnLoan        = "return_loan"
	operationImportBooks       = "import_books"
)

// operationObserver covers one store operation with a span, duration and outcome metrics and a log line.
type operationObserver struct {
	s         *Store
	ctx       context.Context
	operation string
	start     time.Time
	span      circulation.SpanContext
}

// observe starts observing an operation and returns the context to run it with.
func (s *Store) observe(ctx context.Context, operation string) (*operationObserver, context.Context) {
	if s.tracingCollector != nil {
		ctx, span := s.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, map[string]string{spanAttrOperation: operation})

		return &operationObserver{s: s, ctx: ctx, operation: operation, start: time.Now(), span: span}, ctx
	}

	return &operationObserver{s: s, ctx: ctx, operation: operation, start: time.Now()}, ctx
}

// finish records the outcome of the operation. rowCount is reported when it is not negative.
func (o *operationObserver) finish(err error, rowCount int, args ...any) {
	duration := time.Since(o.start)
	status := statusSuccess

	if err != nil {
		status = statusError
	}

	o.s.recordDuration(o.ctx, metricOperationDuration, duration, map[string]string{labelOperation: o.operation, labelStatus: status})
	o.s.incrementCounter(o.ctx, metricOperationCalls, map[string]string{labelOperation: o.operation, labelStatus: status})

	if err == nil && rowCount >= 0 {
		o.s.recordValue(o.ctx, metricRowsReturned, float64(rowCount), map[string]string{labelOperation: o.operation})
	}

	logArgs := append([]any{logAttrDurationMS, toMilliseconds(duration)}, args...)

	switch kind := circulation.KindOf(err); {
	case err == nil:
		o.s.logInfo(o.ctx, logMsgOperation+o.operation, logArgs...)

	case kind == circulation.KindConflict || kind == circulation.KindNotFound || kind == circulation.KindValidation:
		o.s.incrementCounter(o.ctx, metricConflicts, map[string]string{labelOperation: o.operation, labelErrorKind: string(kind)})
		o.s.logInfo(o.ctx, logMsgOperationRejected+o.operation, append(logArgs, logAttrErrorKind, string(kind), logAttrError, err.Error())...)

	case kind == circulation.KindTransient:
		o.s.incrementCounter(o.ctx, metricDatabaseErrors, map[string]string{labelOperation: o.operation, labelErrorKind: string(kind)})
		o.s.logWarn(o.ctx, logMsgOperationTransient+o.operation, append(logArgs, logAttrError, err.Error())...)

	default:
		o.s.incrementCounter(o.ctx, metricDatabaseErrors, map[string]string{labelOperation: o.operation, labelErrorKind: string(kind)})
		o.s.logError(o.ctx, logMsgOperationFailed+o.operation, err, logArgs...)
	}

	o.finishSpan(err, rowCount, duration)
}

func (o *operationObserver) finishSpan(err error, rowCount int, duration time.Duration) {
	if o.span == nil {
		return
	}

	attrs := map[string]string{spanAttrDurationMS: fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6)}
	status := statusSuccess

	if err != nil {
		status = statusError
		attrs[spanAttrErrorKind] = string(circulation.KindOf(err))
	} else if rowCount >= 0 {
		attrs[spanAttrRowCount] = fmt.Sprintf("%d", rowCount)
	}

	o.span.SetStatus(status)
	for key, value := range attrs {
		o.span.AddAttribute(key, value)
	}

	o.s.tracingCollector.FinishSpan(o.span, status, attrs)
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	s.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
}

func (s *Store) logDebug(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Store) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Store) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// logError logs at error level, transient failures are downgraded to warn.
func (s *Store) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if errors.Is(classifyDBError(err), circulation.ErrTransientStore) {
		s.logWarn(ctx, msg, allArgs...)
		return
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, allArgs...)
	}
}

func (s *Store) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextual, ok := s.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metric, duration, labels)
}

func (s *Store) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextual, ok := s.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metric, labels)
}

func (s *Store) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if s.metricsCollector == nil {
		return
	}

	if contextual, ok := s.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextual.RecordValueContext(ctx, metric, value, labels)
		return
	}

	s.metricsCollector.RecordValue(metric, value, labels)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
