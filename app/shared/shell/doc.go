// Package shell holds what every use case of the circulation desk shares: the command and query
// contracts, retrying of transient store failures and the observability helpers used by the
// observable wrappers.
//
// In Hexagonal Architecture terminology this is part of the application layer's infrastructure.
package shell
