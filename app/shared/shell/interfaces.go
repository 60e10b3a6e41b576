package shell

import "context"

// Command is implemented by all command types. CommandType labels logs, metrics and spans.
type Command interface {
	CommandType() string
}

// Query is implemented by all query types. QueryType labels logs, metrics and spans.
type Query interface {
	QueryType() string
}

// CommandHandler processes a command and returns its outcome together with retry metadata.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, command C) (HandlerResult[R], error)
}

// QueryHandler processes a query and returns its result.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
