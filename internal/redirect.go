package internal

import (
	"context"
	"fmt"
	"io"

	"github.com/frankli0324/go-fetch/internal/http"
)

const maxRedirects = 10

// redirect performs req according to its redirect policy, returning the
// final response, the request it answers and the number of hops taken.
func (c *Client) redirect(ctx context.Context, req *http.Request) (*http.RawResponse, *http.Request, int, error) {
	switch req.Redirect() {
	case http.RedirectFollow:
		return c.follow(ctx, req)
	case http.RedirectManual:
		resp, err := c.rawFetch(ctx, req)
		return resp, req, 0, err
	case http.RedirectError:
		resp, err := c.rawFetch(ctx, req)
		if err != nil {
			return nil, nil, 0, err
		}
		if resp.StatusCode >= 300 && resp.StatusCode <= 399 {
			discard(resp.Body)
			return nil, nil, 0, http.Errorf(http.ErrRedirectRejected, "redirect",
				fmt.Sprintf("%s answered %d under the error redirect policy", req.URL(), resp.StatusCode))
		}
		return resp, req, 0, nil
	}
	return nil, nil, 0, http.Errorf(http.ErrInvalidArgument, "redirect", fmt.Sprintf("invalid redirect policy %q", req.Redirect()))
}

func (c *Client) follow(ctx context.Context, req *http.Request) (*http.RawResponse, *http.Request, int, error) {
	l := c.ctxLogger(ctx)
	for hops := 0; ; hops++ {
		resp, err := c.rawFetch(ctx, req)
		if err != nil {
			return nil, nil, 0, err
		}
		loc := resp.Header.Get("Location")
		if resp.StatusCode < 300 || resp.StatusCode > 399 || loc == "" {
			return resp, req, hops, nil
		}
		discard(resp.Body)
		if hops >= maxRedirects {
			return nil, nil, 0, http.Errorf(http.ErrTooManyRedirects, "redirect", fmt.Sprintf("stopped after %d redirects", maxRedirects))
		}
		next, err := req.WithURL(loc)
		if err != nil {
			return nil, nil, 0, err
		}
		l.Debug().Int("hop", hops+1).Int("status", resp.StatusCode).
			Str("from", req.URL()).Str("to", next.URL()).Msg("redirect")
		req = next
	}
}

// discard drains a bit of an unused body so its connection could be
// reused, then closes it.
func discard(body io.ReadCloser) {
	if body == nil {
		return
	}
	io.CopyN(io.Discard, body, 4<<10)
	body.Close()
}
