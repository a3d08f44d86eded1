package domain

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrEmailTaken      = errors.New("email already registered")
	ErrIndexOutOfRange = errors.New("section index out of range")
	ErrEntryNotFound   = errors.New("section entry not found")
	ErrUnknownSection  = errors.New("unknown section")
	ErrInvalidMerge    = errors.New("invalid merge request")
)
