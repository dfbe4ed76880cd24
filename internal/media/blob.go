// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media holds the finished recording type shared by capture and export.
package media

import (
	"bytes"
	"io"
	"strings"
)

// Blob is an immutable binary object tagged with its MIME type.
type Blob struct {
	data     []byte
	mimeType string
}

// NewBlob concatenates parts in order into a single blob.
func NewBlob(parts [][]byte, mimeType string) *Blob {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	data := make([]byte, 0, size)
	for _, p := range parts {
		data = append(data, p...)
	}
	return &Blob{data: data, mimeType: mimeType}
}

// BlobFromBytes wraps data without copying. The caller must not modify data afterwards.
func BlobFromBytes(data []byte, mimeType string) *Blob {
	return &Blob{data: data, mimeType: mimeType}
}

// Size returns the blob length in bytes.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.data))
}

// MimeType returns the full MIME type, including codec parameters.
func (b *Blob) MimeType() string {
	if b == nil {
		return ""
	}
	return b.mimeType
}

// Bytes returns the blob contents. The slice must be treated as read-only.
func (b *Blob) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Reader returns a fresh reader over the contents.
func (b *Blob) Reader() io.ReadSeeker {
	return bytes.NewReader(b.Bytes())
}

// BaseType strips parameters such as ";codecs=vp9,opus" from a MIME type.
func BaseType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
