package repository

import "errors"

var (
	// ErrNotFound is wrapped by every implementation when a keyed row is absent.
	ErrNotFound = errors.New("not found")
	// ErrUsersExist is returned by CreateFirst when the user table is not empty.
	ErrUsersExist = errors.New("users already exist")
)
