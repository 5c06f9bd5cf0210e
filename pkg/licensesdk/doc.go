// Package licensesdk provides a Go client for the keygate license issuer
// HTTP API, plus the wire types and error envelope the server itself uses.
// Keeping both sides on the same types means the admin tooling can never
// drift from what the service actually serves.
package licensesdk
