package http_test

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"

	"github.com/frankli0324/go-fetch/internal/http"
)

type countingReader struct {
	io.Reader
	reads  atomic.Int32
	closed atomic.Bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads.Add(1)
	return c.Reader.Read(p)
}

func (c *countingReader) Close() error {
	c.closed.Store(true)
	return nil
}

func TestBodyViews(t *testing.T) {
	b, err := http.NewBody(`{"a":[1,2],"b":{"c":"d"}}`)
	if err != nil {
		t.Fatal(err)
	}
	v, err := b.JSON()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"a": []interface{}{1.0, 2.0},
		"b": map[string]interface{}{"c": "d"},
	}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("json: %#v", v)
	}
	if r, _ := b.Query("b.c"); r.String() != "d" {
		t.Errorf("query: %v", r)
	}
	var dst struct {
		A []int `json:"a"`
	}
	if err := b.Decode(&dst); err != nil || !reflect.DeepEqual(dst.A, []int{1, 2}) {
		t.Errorf("decode: %v %v", dst, err)
	}

	b1, _ := b.Buffer()
	b2, _ := b.Buffer()
	if &b1[0] != &b2[0] {
		t.Error("buffer view is not memoized")
	}
	a, _ := b.ArrayBuffer()
	if &a[0] != &b1[0] || cap(a) != len(a) {
		t.Error("array buffer is not derived from the buffer")
	}
}

func TestBodyReaderDrainedOnce(t *testing.T) {
	src := &countingReader{Reader: iotest.HalfReader(strings.NewReader("hello world"))}
	b, _ := http.NewBody(src)
	if b.Used() {
		t.Error("fresh body reported used")
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = b.Text()
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		if r != "hello world" {
			t.Errorf("text: %q", r)
		}
	}
	reads := src.reads.Load()
	b.Buffer()
	b.Clone().Text()
	if src.reads.Load() != reads {
		t.Error("source was read again after being drained")
	}
	if !b.Used() || !src.closed.Load() {
		t.Error("drained reader not marked used or not closed")
	}
}

func TestBodyCloneSharesSource(t *testing.T) {
	b, _ := http.NewBody(strings.NewReader("shared"))
	c, _ := http.NewBody(b)
	if s, _ := b.Text(); s != "shared" {
		t.Fatal(s)
	}
	if s, err := c.Text(); s != "shared" || err != nil {
		t.Errorf("clone: %q %v", s, err)
	}
}

func TestBodyReadFailure(t *testing.T) {
	b, _ := http.NewBody(iotest.ErrReader(errors.New("boom")))
	if _, err := b.Text(); !errors.Is(err, http.ErrBodyRead) {
		t.Errorf("expected read failure, got %v", err)
	}
	if _, err := b.Buffer(); !errors.Is(err, http.ErrBodyUsed) {
		t.Errorf("expected used body, got %v", err)
	}
}

func TestBodyMalformedJSON(t *testing.T) {
	b, _ := http.NewBody(strings.NewReader("{not json"))
	if _, err := b.JSON(); !errors.Is(err, http.ErrParse) {
		t.Errorf("expected parse failure, got %v", err)
	}
	if s, err := b.Text(); s != "{not json" || err != nil {
		t.Errorf("text after json failure: %q %v", s, err)
	}
	if _, err := b.JSON(); !errors.Is(err, http.ErrParse) {
		t.Errorf("json failure was memoized as success: %v", err)
	}
}

func TestBodyInvalidUTF8(t *testing.T) {
	b, _ := http.NewBody([]byte{'a', 0xff, 'b'})
	if s, err := b.Text(); s != "a\uFFFDb" || err != nil {
		t.Errorf("text: %q %v", s, err)
	}
}

func TestBodyAbsent(t *testing.T) {
	b, _ := http.NewBody(nil)
	if s, err := b.Text(); s != "" || err != nil {
		t.Errorf("text: %q %v", s, err)
	}
	if buf, err := b.Buffer(); len(buf) != 0 || err != nil {
		t.Errorf("buffer: %v %v", buf, err)
	}
	if _, err := http.NewBody(3.14); !errors.Is(err, http.ErrInvalidArgument) {
		t.Errorf("unsupported init: %v", err)
	}
}

func TestBodyBytesCopied(t *testing.T) {
	raw := []byte("abc")
	b, _ := http.NewBody(raw)
	raw[0] = 'x'
	if s, _ := b.Text(); s != "abc" {
		t.Errorf("body aliases caller slice: %q", s)
	}
}

func TestBlobType(t *testing.T) {
	req, err := http.NewRequest("http://example.com", &http.RequestInit{
		Method:  "POST",
		Body:    "payload",
		Headers: map[string]string{"content-type": "text/x-test"},
	})
	if err != nil {
		t.Fatal(err)
	}
	blob, err := req.Blob()
	if err != nil {
		t.Fatal(err)
	}
	if blob.Type() != "text/x-test" || blob.Size() != 7 {
		t.Errorf("blob: %q %d", blob.Type(), blob.Size())
	}
	if b, _ := io.ReadAll(blob.Reader()); string(b) != "payload" {
		t.Errorf("blob reader: %q", b)
	}
}
