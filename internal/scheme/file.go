package scheme

import (
	"context"
	"mime"
	"net/url"
	"os"
	"path/filepath"

	"github.com/frankli0324/go-fetch/internal/http"
)

// MIMELookup maps a file extension, including the leading dot, to a media
// type. a missing entry is "".
type MIMELookup func(ext string) string

// File returns a handler serving file urls from the local filesystem.
// lookup defaults to [mime.TypeByExtension].
func File(lookup MIMELookup) Handler {
	if lookup == nil {
		lookup = mime.TypeByExtension
	}
	return func(ctx context.Context, req *http.Request) (*http.Response, error) {
		u, err := url.Parse(req.URL())
		if err != nil {
			return nil, http.NewError(http.ErrInvalidArgument, "file", err)
		}
		// url.Parse already percent-decodes Path
		p := u.Path
		if p == "" {
			p = u.Opaque
			if p, err = url.PathUnescape(p); err != nil {
				return nil, http.NewError(http.ErrInvalidArgument, "file", err)
			}
		}
		b, err := os.ReadFile(filepath.FromSlash(p))
		if err != nil {
			return nil, http.NewError(http.ErrLocalResource, "file", err)
		}
		return respond(req, b, lookup(filepath.Ext(p)))
	}
}
