// Package testdoubles provides spies for the observability interfaces of the circulation package.
//
// The spies record every call so tests can assert on the logs, metrics and spans that
// the store, the command handlers and the HTTP layer emit. All of them are safe for
// concurrent use.
package testdoubles
