package store

import "errors"

// ErrNotFound is returned by Load when no record exists for the username
// in any lookup source.
var ErrNotFound = errors.New("user record not found")
