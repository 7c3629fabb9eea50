package internal

import "github.com/frankli0324/go-fetch/internal/dialer"

// DisableH2 stops the client from negotiating HTTP/2 over TLS.
func (c *Client) DisableH2() (ok bool) {
	return c.UseCoreDialer(func(d *dialer.CoreDialer) {
		if d.TLSConfig == nil {
			return
		}
		np := d.TLSConfig.NextProtos
		kept := np[:0:0]
		for _, p := range np {
			if p != "h2" {
				kept = append(kept, p)
			}
		}
		d.TLSConfig.NextProtos = kept
	})
}
