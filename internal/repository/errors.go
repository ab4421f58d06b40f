package repository

import "errors"

// ErrStaleVersion is returned when a counter update loses a compare-and-swap
// race against a concurrent writer.
var ErrStaleVersion = errors.New("stale student version")

// ErrEmailTaken is returned when creating an account whose e-mail already exists.
var ErrEmailTaken = errors.New("email already registered")
