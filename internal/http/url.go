package http

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var defaultPorts = map[string]string{
	"http": "80", "https": "443",
}

// NormalizeURL parses raw as an absolute URL and returns its normalized
// form. normalizing an already normalized URL returns it unchanged.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", NewError(ErrInvalidArgument, "url", err)
	}
	if err := normalize(u); err != nil {
		return "", err
	}
	return u.String(), nil
}

func normalize(u *url.URL) error {
	if u.Scheme == "" {
		return Errorf(ErrInvalidArgument, "url", fmt.Sprintf("'%s' is not an absolute URL", u.String()))
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Opaque != "" {
		return nil
	}
	if _, special := defaultPorts[u.Scheme]; special && u.Host == "" {
		return Errorf(ErrInvalidArgument, "url", fmt.Sprintf("'%s' has no host", u.String()))
	}
	if u.Host != "" {
		host, port := u.Host, ""
		if h, p, err := net.SplitHostPort(u.Host); err == nil {
			host, port = h, p
		}
		if !strings.HasPrefix(u.Host, "[") && !isASCII(host) {
			ascii, err := idna.Lookup.ToASCII(host)
			if err != nil {
				return NewError(ErrInvalidArgument, "url", err)
			}
			host = ascii
		}
		host = strings.ToLower(host)
		if port == defaultPorts[u.Scheme] {
			port = ""
		}
		if port != "" {
			u.Host = net.JoinHostPort(host, port)
		} else if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
			u.Host = "[" + host + "]"
		} else {
			u.Host = host
		}
		if u.Path == "" {
			u.Path = "/"
		}
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
