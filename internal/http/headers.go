package http

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Headers is a case-insensitive, insertion ordered header container.
// names are stored lowercased and restricted to [a-z0-9-], setting an
// existing name overwrites its value in place.
//
// a Headers is not safe for concurrent mutation.
type Headers struct {
	keys   []string
	values map[string]string
}

// NewHeaders creates a Headers from init, which could be nil, *[Headers],
// [][2]string, map[string]string or [net/http.Header]. every entry goes
// through the same validation as [Headers.Set].
func NewHeaders(init interface{}) (*Headers, error) {
	h := &Headers{values: map[string]string{}}
	switch v := init.(type) {
	case nil:
	case *Headers:
		if v != nil {
			h.Assign(v)
		}
	case [][2]string:
		for _, kv := range v {
			if err := h.Set(kv[0], kv[1]); err != nil {
				return nil, err
			}
		}
	case map[string]string:
		for k, val := range v {
			if err := h.Set(k, val); err != nil {
				return nil, err
			}
		}
	case http.Header:
		for k, vals := range v {
			if err := h.Set(k, strings.Join(vals, ", ")); err != nil {
				return nil, err
			}
		}
	default:
		return nil, Errorf(ErrInvalidArgument, "headers", fmt.Sprintf("unsupported headers init type: %T", init))
	}
	return h, nil
}

// normalizeName lowercases name and checks it against [a-z0-9-]
func normalizeName(name string) (string, error) {
	if name == "" {
		return "", Errorf(ErrInvalidArgument, "headers", "empty header name")
	}
	n := strings.ToLower(name)
	for i := 0; i < len(n); i++ {
		c := n[i]
		if !('a' <= c && c <= 'z' || '0' <= c && c <= '9' || c == '-') {
			return "", Errorf(ErrInvalidArgument, "headers", fmt.Sprintf("invalid header name %q", name))
		}
	}
	return n, nil
}

func (h *Headers) init() {
	if h.values == nil {
		h.values = map[string]string{}
	}
}

// Get returns the value of name, or "" when absent.
func (h *Headers) Get(name string) (string, error) {
	n, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	return h.values[n], nil
}

func (h *Headers) Has(name string) (bool, error) {
	n, err := normalizeName(name)
	if err != nil {
		return false, err
	}
	_, ok := h.values[n]
	return ok, nil
}

func (h *Headers) Set(name, value string) error {
	n, err := normalizeName(name)
	if err != nil {
		return err
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return Errorf(ErrInvalidArgument, "headers", fmt.Sprintf("invalid value for header %q", n))
	}
	h.init()
	if _, ok := h.values[n]; !ok {
		h.keys = append(h.keys, n)
	}
	h.values[n] = value
	return nil
}

// Delete removes name and reports whether it was present.
func (h *Headers) Delete(name string) (bool, error) {
	n, err := normalizeName(name)
	if err != nil {
		return false, err
	}
	if _, ok := h.values[n]; !ok {
		return false, nil
	}
	delete(h.values, n)
	for i, k := range h.keys {
		if k == n {
			h.keys = append(h.keys[:i:i], h.keys[i+1:]...)
			break
		}
	}
	return true, nil
}

func (h *Headers) Clear() {
	h.keys = nil
	h.values = map[string]string{}
}

// Assign copies every entry of other into h, overwriting existing ones.
func (h *Headers) Assign(other *Headers) {
	if other == nil {
		return
	}
	h.init()
	for _, k := range other.keys {
		if _, ok := h.values[k]; !ok {
			h.keys = append(h.keys, k)
		}
		h.values[k] = other.values[k]
	}
}

// Clone returns a shallow snapshot of h.
func (h *Headers) Clone() *Headers {
	c := &Headers{values: make(map[string]string, len(h.keys))}
	c.Assign(h)
	return c
}

func (h *Headers) Keys() []string {
	return append([]string(nil), h.keys...)
}

func (h *Headers) Values() []string {
	vals := make([]string, len(h.keys))
	for i, k := range h.keys {
		vals[i] = h.values[k]
	}
	return vals
}

func (h *Headers) Entries() [][2]string {
	ent := make([][2]string, len(h.keys))
	for i, k := range h.keys {
		ent[i] = [2]string{k, h.values[k]}
	}
	return ent
}

func (h *Headers) Len() int {
	return len(h.keys)
}

// Map returns a plain snapshot of the entries.
func (h *Headers) Map() map[string]string {
	m := make(map[string]string, len(h.keys))
	for _, k := range h.keys {
		m[k] = h.values[k]
	}
	return m
}

// HTTPHeader converts h to a [net/http.Header] without canonicalizing the
// names, they are written to the wire as is.
func (h *Headers) HTTPHeader() http.Header {
	hh := make(http.Header, len(h.keys))
	for _, k := range h.keys {
		hh[k] = []string{h.values[k]}
	}
	return hh
}
