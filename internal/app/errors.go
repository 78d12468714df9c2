package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrWeakPassword      = errors.New("password too weak: minimum 6 characters")
	ErrInvalidCredential = errors.New("invalid username or password")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrNoDocuments  = errors.New("no documents to search")

	// ErrNotOwner marks a tenant-isolation violation: the document exists
	// but belongs to another account. Handlers must present it exactly
	// like ErrNotFound so foreign document ids stay unobservable.
	ErrNotOwner = errors.New("document owned by another account")
	ErrNotFound = errors.New("document not found")
)
