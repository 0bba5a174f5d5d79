package domain

import "errors"

// ErrBroadcasterNotFound is returned by BroadcasterRepository lookups when no
// row exists for the given id.
var ErrBroadcasterNotFound = errors.New("broadcaster not found")
