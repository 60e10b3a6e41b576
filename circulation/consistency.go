package circulation

import "context"

// ConsistencyLevel decides whether a read may be served by a replica.
type ConsistencyLevel int

const (
	// StrongConsistency reads from the primary database. This is the default,
	// and every locking operation runs on the primary regardless of the level.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows plain reads like catalog searches, loan listings
	// and exports to be served by a replica when one is configured.
	EventualConsistency
)

type contextKey string

// ConsistencyLevelKey is the context key used to store the consistency level.
const ConsistencyLevelKey contextKey = "circulation.consistency_level"

// WithStrongConsistency returns a context whose reads go to the primary database.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context whose reads may go to a replica.
//
//	ctx = circulation.WithEventualConsistency(ctx)
//	books, err := store.SearchBooks(ctx, circulation.BookSearch{Query: "tolkien"})
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context, defaulting to StrongConsistency.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
