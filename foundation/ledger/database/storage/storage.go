// Package storage implements the database.Serializer interface for the
// supported persistence backends.
package storage

import "errors"

// ErrNoBlock is returned when a requested block number has not been stored.
var ErrNoBlock = errors.New("block does not exist")
