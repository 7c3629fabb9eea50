package scheme

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/frankli0324/go-fetch/internal/http"
	"golang.org/x/text/encoding/htmlindex"
)

// the media type a data url without one carries, RFC 2397
const defaultDataType = "text/plain;charset=US-ASCII"

// Data serves data urls: data:[<mediatype>][;charset=X][;base64],<data>
func Data(_ context.Context, req *http.Request) (*http.Response, error) {
	raw := strings.TrimPrefix(req.URL(), "data:")
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return nil, http.NewError(http.ErrParse, "data", err)
	}
	head, payload, _ := strings.Cut(decoded, ",")

	mediaType, isBase64, charset := parseDataHead(head)
	var body []byte
	if isBase64 {
		if body, err = decodeBase64(payload); err != nil {
			return nil, http.NewError(http.ErrParse, "data", err)
		}
	} else {
		body = []byte(payload)
	}
	if charset != "" {
		body = toUTF8(body, charset)
	}
	if mediaType == "" {
		mediaType = defaultDataType
	}
	return respond(req, body, mediaType)
}

// parseDataHead splits the metadata of a data url. the base64 marker and
// the charset may appear anywhere after the media type, the returned media
// type keeps every parameter but the base64 marker.
func parseDataHead(head string) (mediaType string, isBase64 bool, charset string) {
	params := strings.Split(head, ";")
	kept := params[:1]
	for _, p := range params[1:] {
		p = strings.TrimSpace(p)
		switch {
		case strings.EqualFold(p, "base64"):
			isBase64 = true
			continue
		case len(p) > 8 && strings.EqualFold(p[:8], "charset="):
			charset = strings.Trim(p[8:], `"`)
		}
		kept = append(kept, p)
	}
	mediaType = strings.TrimSpace(kept[0])
	if mediaType == "" && len(kept) > 1 {
		mediaType = "text/plain"
	}
	if len(kept) > 1 {
		mediaType += ";" + strings.Join(kept[1:], ";")
	}
	return
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
	if strings.HasSuffix(s, "=") || len(s)%4 == 0 {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// toUTF8 transcodes b from charset, unknown charsets leave b untouched.
func toUTF8(b []byte, charset string) []byte {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return b
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return b
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return b
	}
	return out
}
