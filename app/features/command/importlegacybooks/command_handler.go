package importlegacybooks

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// CatalogStore is what the CommandHandler needs from the catalog.
type CatalogStore interface {
	ImportBooks(ctx context.Context, groups []circulation.ImportGroup) (circulation.ImportStats, error)
}

// CommandHandler groups legacy records and upserts the groups, retrying transient store failures.
// A retry reruns the whole batch, the failed attempt was rolled back.
type CommandHandler struct {
	store        CatalogStore
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

func NewCommandHandler(store CatalogStore, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle returns the import statistics. RecordsProcessed counts every record, blank ones included.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult[circulation.ImportStats], error) {
	groups := circulation.GroupLegacyRecords(command.Records)

	ctx = circulation.WithStrongConsistency(ctx)

	return shell.HandleWithRetry(ctx, func(ctx context.Context) (circulation.ImportStats, error) {
		stats, err := h.store.ImportBooks(ctx, groups)
		if err != nil {
			return circulation.ImportStats{}, err
		}

		stats.RecordsProcessed = len(command.Records)

		return stats, nil
	}, h.retryOptions...)
}
