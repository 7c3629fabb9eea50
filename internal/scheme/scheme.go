// Package scheme implements the handlers for URL schemes served without
// going over the network.
package scheme

import (
	"context"

	"github.com/frankli0324/go-fetch/internal/http"
)

// Handler produces a Response for a request of a single URL scheme.
type Handler func(ctx context.Context, req *http.Request) (*http.Response, error)

func respond(req *http.Request, body interface{}, contentType string) (*http.Response, error) {
	var headers [][2]string
	if contentType != "" {
		headers = [][2]string{{"content-type", contentType}}
	}
	return http.NewResponse(body, &http.ResponseInit{
		Status:  200,
		Headers: headers,
		URL:     req.URL(),
	})
}
