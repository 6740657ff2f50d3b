// Package core defines the fundamental types and errors for the sales coach.
package core

import "errors"

// Core errors that can occur across the system
var (
	// Storage errors
	ErrMigrationFailed = errors.New("migration failed")
	ErrRecordNotFound  = errors.New("record not found")
	ErrDuplicateRecord = errors.New("duplicate record")

	// Record errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrContactNotFound = errors.New("contact not found")
	ErrContextNotFound = errors.New("current context not found")

	// Chat errors
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingRequired = errors.New("missing required field")
)
