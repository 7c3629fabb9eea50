package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// source is the byte producing side of a [Body]. a live reader is read
// start-to-finish at most once, either drained into data or handed out
// (claimed) for streaming. bodies cloned from each other share the same
// source, so the payload is never read twice.
type source struct {
	mu      sync.Mutex
	r       io.Reader
	data    []byte
	done    bool // data holds the complete payload
	claimed bool // r is being streamed by a recorder
	read    bool // a live reader was consumed
	failure error
}

func replaySource(b []byte) *source {
	return &source{data: b, done: true}
}

func liveSource(r io.Reader) *source {
	return &source{r: r}
}

func closeReader(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		c.Close()
	}
}

func (s *source) spent() error {
	if s.claimed {
		return Errorf(ErrBodyUsed, "body", "source is being streamed")
	}
	if s.failure != nil {
		return NewError(ErrBodyUsed, "body", s.failure)
	}
	return Errorf(ErrBodyUsed, "body", "source already consumed")
}

// drain reads the whole source into memory, concurrent callers wait for
// the first one and share its result.
func (s *source) drain() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return s.data, nil
	}
	if s.r == nil {
		return nil, s.spent()
	}
	r := s.r
	s.r, s.read = nil, true
	b, err := io.ReadAll(r)
	closeReader(r)
	if err != nil {
		s.failure = err
		return nil, &Error{Kind: ErrBodyRead, Op: "body", Err: err}
	}
	s.data, s.done = b, true
	return b, nil
}

// stream returns a reader over the payload and its length, -1 if unknown.
// a live reader is recorded while being read, once it hits EOF the
// recorded bytes become the drained payload.
func (s *source) stream() (io.ReadCloser, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return io.NopCloser(bytes.NewReader(s.data)), int64(len(s.data)), nil
	}
	if s.r == nil {
		return nil, 0, s.spent()
	}
	r := s.r
	s.r, s.read, s.claimed = nil, true, true
	return &recorder{src: s, r: r}, -1, nil
}

func (s *source) length() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return int64(len(s.data))
	}
	return -1
}

type recorder struct {
	src      *source
	r        io.Reader
	buf      bytes.Buffer
	finished bool
}

func (c *recorder) Read(p []byte) (int, error) {
	if c.finished {
		return 0, io.EOF
	}
	n, err := c.r.Read(p)
	c.buf.Write(p[:n])
	if err == io.EOF {
		c.finish(nil)
	} else if err != nil {
		c.finish(err)
	}
	return n, err
}

func (c *recorder) Close() error {
	c.finish(errors.New("stream closed before EOF"))
	return nil
}

func (c *recorder) finish(err error) {
	if c.finished {
		return
	}
	c.finished = true
	closeReader(c.r)
	c.src.mu.Lock()
	c.src.claimed = false
	if err == nil {
		c.src.data, c.src.done = c.buf.Bytes(), true
	} else {
		c.src.failure = err
	}
	c.src.mu.Unlock()
}

// Body is a lazy, memoizing wrapper around a byte payload. each view is
// computed at most once and derived from the same drained bytes.
//
// the zero value is an absent body.
type Body struct {
	src *source

	mu       sync.Mutex
	buf      []byte
	hasBuf   bool
	arr      []byte
	hasArr   bool
	text     *string
	json     interface{}
	hasJSON  bool
	blob     *Blob
	blobType string
}

// NewBody creates a Body from init, which could be nil, string, []byte,
// *[Body] or any [io.Reader].
//
// a *[Body] init shares the caches and the source of the original, a
// reader is stored undrained.
func NewBody(init interface{}) (*Body, error) {
	switch v := init.(type) {
	case nil:
		return &Body{}, nil
	case string:
		return &Body{src: replaySource([]byte(v)), text: &v}, nil
	case []byte:
		b := append([]byte{}, v...)
		return &Body{src: replaySource(b), buf: b, hasBuf: true, arr: b[:len(b):len(b)], hasArr: true}, nil
	case *Body:
		if v == nil {
			return &Body{}, nil
		}
		return v.Clone(), nil
	case io.Reader:
		return &Body{src: liveSource(v)}, nil
	}
	return nil, Errorf(ErrInvalidArgument, "body", fmt.Sprintf("unsupported body init type: %T", init))
}

// Clone returns a Body sharing the source and every view computed so far.
func (b *Body) Clone() *Body {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Body{
		src: b.src,
		buf: b.buf, hasBuf: b.hasBuf,
		arr: b.arr, hasArr: b.hasArr,
		text: b.text,
		json: b.json, hasJSON: b.hasJSON,
		blob:     b.blob,
		blobType: b.blobType,
	}
}

// Used reports whether a live source behind the body was consumed.
func (b *Body) Used() bool {
	if b.src == nil {
		return false
	}
	b.src.mu.Lock()
	defer b.src.mu.Unlock()
	return b.src.read
}

func (b *Body) buffer() ([]byte, error) {
	if b.hasBuf {
		return b.buf, nil
	}
	if b.src == nil {
		b.buf, b.hasBuf = []byte{}, true
		return b.buf, nil
	}
	data, err := b.src.drain()
	if err != nil {
		return nil, err
	}
	b.buf, b.hasBuf = data, true
	return data, nil
}

// Buffer returns the whole payload. the returned slice is shared with
// every other view and must not be modified.
func (b *Body) Buffer() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer()
}

// ArrayBuffer returns a capacity-limited view over [Body.Buffer].
func (b *Body) ArrayBuffer() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hasArr {
		return b.arr, nil
	}
	buf, err := b.buffer()
	if err != nil {
		return nil, err
	}
	b.arr, b.hasArr = buf[:len(buf):len(buf)], true
	return b.arr, nil
}

func (b *Body) textLocked() (string, error) {
	if b.text != nil {
		return *b.text, nil
	}
	buf, err := b.buffer()
	if err != nil {
		return "", err
	}
	s := string(buf)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	b.text = &s
	return s, nil
}

// Text decodes the payload as UTF-8, invalid sequences are replaced
// with U+FFFD instead of failing.
func (b *Body) Text() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.textLocked()
}

// JSON parses the text payload into nil, bool, float64, string,
// []interface{} or map[string]interface{}. a parse failure is not
// memoized, the text stays cached.
func (b *Body) JSON() (interface{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hasJSON {
		return b.json, nil
	}
	text, err := b.textLocked()
	if err != nil {
		return nil, err
	}
	if !gjson.Valid(text) {
		return nil, Errorf(ErrParse, "json", "malformed JSON payload")
	}
	b.json, b.hasJSON = gjson.Parse(text).Value(), true
	return b.json, nil
}

// Decode unmarshals the JSON payload into v.
func (b *Body) Decode(v interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, err := b.buffer()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return &Error{Kind: ErrParse, Op: "json", Err: err}
	}
	return nil
}

// Query evaluates a gjson path against the JSON payload.
func (b *Body) Query(path string) (gjson.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, err := b.textLocked()
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(text) {
		return gjson.Result{}, Errorf(ErrParse, "json", "malformed JSON payload")
	}
	return gjson.Get(text, path), nil
}

func (b *Body) Blob() (*Blob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.blob != nil {
		return b.blob, nil
	}
	buf, err := b.buffer()
	if err != nil {
		return nil, err
	}
	b.blob = &Blob{typ: b.blobType, data: buf}
	return b.blob, nil
}

func (b *Body) setBlobType(typ string) {
	b.mu.Lock()
	b.blobType = typ
	b.mu.Unlock()
}

// stream returns the payload for transmission. an absent body returns a
// nil reader.
func (b *Body) stream() (io.ReadCloser, int64, error) {
	b.mu.Lock()
	if b.hasBuf {
		buf := b.buf
		b.mu.Unlock()
		return io.NopCloser(bytes.NewReader(buf)), int64(len(buf)), nil
	}
	b.mu.Unlock()
	if b.src == nil {
		return nil, 0, nil
	}
	return b.src.stream()
}

// size returns the payload length, -1 when it is only known after
// reading a live source.
func (b *Body) size() int64 {
	b.mu.Lock()
	if b.hasBuf {
		n := len(b.buf)
		b.mu.Unlock()
		return int64(n)
	}
	b.mu.Unlock()
	if b.src == nil {
		return 0
	}
	return b.src.length()
}

// absent reports whether the body has no payload at all.
func (b *Body) absent() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.src == nil && !b.hasBuf
}
