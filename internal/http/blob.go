package http

import (
	"bytes"
	"io"
)

// Blob is an immutable chunk of bytes tagged with a media type.
type Blob struct {
	typ  string
	data []byte
}

// Type returns the media type of the blob, "" when unknown.
func (b *Blob) Type() string { return b.typ }

func (b *Blob) Size() int64 { return int64(len(b.data)) }

// Bytes returns a copy of the blob content.
func (b *Blob) Bytes() []byte { return append([]byte(nil), b.data...) }

func (b *Blob) Reader() io.Reader { return bytes.NewReader(b.data) }
