// Package app holds the overlay service, the single choke point through
// which every state mutation passes.
//
// The service owns the in-memory copy of the overlay state. Writes merge,
// stamp, publish, then persist best-effort: a persistence failure surfaces
// to the caller while the already-broadcast in-memory state stands, because
// stalling the show costs more than a redundant resend.
package app
