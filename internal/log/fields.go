// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldTakeID    = "take_id"
	FieldExportID  = "export_id"
	FieldHandleID  = "handle_id"
	FieldRef       = "ref"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStrategy  = "strategy"
	FieldOutcome   = "outcome"
	FieldProfile   = "profile"
	FieldOwner     = "owner"

	// Media fields
	FieldMimeType = "mime_type"
	FieldFacing   = "facing"
	FieldBytes    = "bytes"
	FieldChunks   = "chunks"
	FieldFilename = "filename"
	FieldFamily   = "family"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
)
