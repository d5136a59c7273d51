package model

import "errors"

// ErrPrecondition marks a request the caller should not have made, such as
// inserting a value that already has an identity.
var ErrPrecondition = errors.New("precondition failed")

// ErrValidation marks a missing or malformed field.
var ErrValidation = errors.New("invalid value")

// ErrNotFound marks a lookup that did not resolve to exactly one row.
var ErrNotFound = errors.New("not found")
