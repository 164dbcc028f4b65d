package store

import "errors"

// ErrNotFound is the sentinel returned by stores when a record does not
// exist. The model layer maps it onto the application error taxonomy.
var ErrNotFound = errors.New("record not found")
