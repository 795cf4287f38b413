package repository

import "errors"

var (
	// ErrNoteNotFound indicates the note does not exist or belongs to another user
	ErrNoteNotFound = errors.New("note not found")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
