// Package httpapi serves the circulation desk as a JSON API on fiber.
//
// Every route under /api except login, logout, version, health and backup requires a session
// cookie holding an HS256 JWT. Backup is guarded by a bearer token instead. Errors are returned
// as {"ok": false, "kind": ..., "error": ...} with the status derived from circulation.KindOf.
package httpapi
