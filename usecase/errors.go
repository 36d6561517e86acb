package usecase

import "errors"

var (
	// ErrForbidden means the caller can see the note but may not perform
	// the operation, e.g. a collaborator deleting it.
	ErrForbidden = errors.New("operation not permitted on this note")

	ErrConflict = errors.New("conflicting note state")

	ErrNotCollaborator = errors.New("user is not a collaborator on this note")
)
