package store

import "errors"

// ErrNotFound is returned when a row does not exist or is not owned by the
// requesting user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")
