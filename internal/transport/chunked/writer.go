package chunked

import (
	"io"
	"net/http"
	"sort"
	"strconv"
)

// NewChunkedWriter frames everything written to it as chunks on w. the
// stream is terminated by CloseWithTrailer, w itself is never closed.
func NewChunkedWriter(w io.Writer) *chunkedWriter {
	return &chunkedWriter{Wire: w}
}

type chunkedWriter struct {
	Wire io.Writer
	head []byte
}

func (cw *chunkedWriter) Write(data []byte) (n int, err error) {
	// a zero sized chunk would end the stream
	if len(data) == 0 {
		return 0, nil
	}
	cw.head = strconv.AppendInt(cw.head[:0], int64(len(data)), 16)
	cw.head = append(cw.head, '\r', '\n')
	if _, err = cw.Wire.Write(cw.head); err != nil {
		return 0, err
	}
	if n, err = cw.Wire.Write(data); err != nil {
		return n, err
	}
	if n != len(data) {
		return n, io.ErrShortWrite
	}
	if _, err = io.WriteString(cw.Wire, "\r\n"); err != nil {
		return n, err
	}
	if f, ok := cw.Wire.(interface{ Flush() error }); ok {
		err = f.Flush()
	}
	return n, err
}

// CloseWithTrailer writes the last chunk followed by trailer, whose keys
// are written sorted.
func (cw *chunkedWriter) CloseWithTrailer(trailer http.Header) error {
	if _, err := io.WriteString(cw.Wire, "0\r\n"); err != nil {
		return err
	}
	keys := make([]string, 0, len(trailer))
	for k := range trailer {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range trailer[k] {
			if _, err := io.WriteString(cw.Wire, k+": "+v+"\r\n"); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(cw.Wire, "\r\n")
	return err
}
