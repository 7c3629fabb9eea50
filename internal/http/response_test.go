package http_test

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/frankli0324/go-fetch/internal/http"
)

type closingBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closingBuffer) Close() error {
	c.closed = true
	return nil
}

func TestResponseStatus(t *testing.T) {
	for status, want := range map[int]struct {
		ok   bool
		text string
	}{
		0:   {true, "OK"},
		200: {true, "OK"},
		204: {true, "No Content"},
		299: {true, ""},
		302: {false, "Found"},
		404: {false, "Not Found"},
		599: {false, ""},
	} {
		resp, err := http.NewResponse(nil, &http.ResponseInit{Status: status})
		if err != nil {
			t.Errorf("%d: %v", status, err)
			continue
		}
		if resp.OK() != want.ok || resp.StatusText() != want.text {
			t.Errorf("%d: ok=%v text=%q", status, resp.OK(), resp.StatusText())
		}
	}
	for _, bad := range []int{99, 600, -1} {
		if _, err := http.NewResponse(nil, &http.ResponseInit{Status: bad}); !errors.Is(err, http.ErrInvalidArgument) {
			t.Errorf("%d accepted: %v", bad, err)
		}
	}
}

func TestResponseDefaults(t *testing.T) {
	resp, err := http.NewResponse("x", &http.ResponseInit{
		StatusText: "Fine",
		URL:        "HTTP://Example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status() != 200 || resp.StatusText() != "Fine" || resp.Type() != http.ResponseDefault ||
		resp.URL() != "http://example.com/" || resp.Redirected() {
		t.Errorf("unexpected response fields: %d %q %s %s", resp.Status(), resp.StatusText(), resp.Type(), resp.URL())
	}
}

func TestWriteResponse(t *testing.T) {
	resp, _ := http.NewResponse("hello", &http.ResponseInit{
		Status:  201,
		Headers: map[string]string{"x-test": "1", "content-length": "999"},
	})
	rec := httptest.NewRecorder()
	if err := resp.WriteResponse(rec, nil); err != nil {
		t.Fatal(err)
	}
	if rec.Code != 201 || rec.Body.String() != "hello" {
		t.Errorf("written: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Test") != "1" || rec.Header().Get("Content-Length") != "5" {
		t.Errorf("headers: %v", rec.Header())
	}

	again := httptest.NewRecorder()
	if err := resp.WriteResponse(again, nil); !errors.Is(err, http.ErrResponseWritten) {
		t.Errorf("second write: %v", err)
	}
	if again.Body.Len() != 0 {
		t.Error("second write produced output")
	}
	var buf closingBuffer
	if err := resp.Write(&buf, nil); !errors.Is(err, http.ErrResponseWritten) || buf.Len() != 0 {
		t.Errorf("write after WriteResponse: %v", err)
	}

	clone := resp.Clone()
	if err := clone.Write(&buf, nil); err != nil {
		t.Errorf("clone write: %v", err)
	}
}

func TestResponseWire(t *testing.T) {
	resp, _ := http.NewResponse("ok", &http.ResponseInit{
		Status:  201,
		Headers: [][2]string{{"X-A", "b"}},
	})
	var buf closingBuffer
	if err := resp.Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if want := "HTTP/1.1 201 Created\r\nx-a: b\r\ncontent-length: 2\r\n\r\nok"; buf.String() != want {
		t.Errorf("wire: %q", buf.String())
	}
	if !buf.closed {
		t.Error("sink not ended")
	}
}

func TestResponseWireChunked(t *testing.T) {
	resp, _ := http.NewResponse(strings.NewReader("ok"), nil)
	var buf closingBuffer
	if err := resp.Write(&buf, &http.WriteOptions{End: false}); err != nil {
		t.Fatal(err)
	}
	if want := "HTTP/1.1 200 OK\r\ntransfer-encoding: chunked\r\n\r\n2\r\nok\r\n0\r\n\r\n"; buf.String() != want {
		t.Errorf("wire: %q", buf.String())
	}
	if buf.closed {
		t.Error("sink ended despite End: false")
	}
	if s, err := resp.Text(); s != "ok" || err != nil {
		t.Errorf("text after write: %q %v", s, err)
	}
}

func TestWriteResponseNoContent(t *testing.T) {
	resp, _ := http.NewResponse("x", &http.ResponseInit{Status: 204})
	rec := httptest.NewRecorder()
	if err := resp.WriteResponse(rec, nil); err != nil {
		t.Fatal(err)
	}
	if rec.Code != 204 || rec.Body.Len() != 0 {
		t.Errorf("written: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Errorf("headers: %v", rec.Header())
	}
}

func TestResponseWireNoContent(t *testing.T) {
	resp, _ := http.NewResponse(nil, &http.ResponseInit{Status: 204})
	var buf bytes.Buffer
	if err := resp.Write(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if want := "HTTP/1.1 204 No Content\r\n\r\n"; buf.String() != want {
		t.Errorf("wire: %q", buf.String())
	}
}
