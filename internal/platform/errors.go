// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package platform

import (
	"errors"
	"fmt"
)

// DOM exception names surfaced by media and share APIs.
const (
	NameNotAllowed      = "NotAllowedError"
	NameNotFound        = "NotFoundError"
	NameNotSupported    = "NotSupportedError"
	NameOverconstrained = "OverconstrainedError"
	NameNotReadable     = "NotReadableError"
	NameAbort           = "AbortError"
)

// MediaError is an error raised by the host platform, tagged with its DOM name.
type MediaError struct {
	Name    string
	Message string
}

func (e *MediaError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// NewMediaError returns a MediaError with the given name.
func NewMediaError(name, msg string) *MediaError {
	return &MediaError{Name: name, Message: msg}
}

// ErrorName returns the DOM name of err, or "" if err carries none.
func ErrorName(err error) string {
	var me *MediaError
	if errors.As(err, &me) {
		return me.Name
	}
	return ""
}

// IsAbort reports whether err is a user dismissal of a dialog or share sheet.
func IsAbort(err error) bool {
	return ErrorName(err) == NameAbort
}
