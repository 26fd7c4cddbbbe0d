package models

import "errors"

var (
	// ErrInputUnavailable marks a document whose content could not be fetched.
	ErrInputUnavailable = errors.New("input unavailable")

	ErrAssignmentNotFound = errors.New("no submissions found for assignment")
)
