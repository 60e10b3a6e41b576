// Package oteladapters maps the circulation observability interfaces onto OpenTelemetry.
//
// The HTTP server and the CLI use these adapters to feed the store's logs, metrics and spans
// into whatever OpenTelemetry providers are registered globally.
package oteladapters
