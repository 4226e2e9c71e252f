// Package domain defines the overlay state model and the whitelist merge.
//
// The merge is a pure function over a previous state and an untyped patch so
// that the tolerant-input write behavior stays auditable and testable without
// any transport or storage in the picture.
package domain
