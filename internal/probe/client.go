package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"fetchname/internal/utils"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

// DefaultConnectTimeout bounds connection setup. Reads are not bounded.
const DefaultConnectTimeout = 1000 * time.Millisecond

const maxRedirects = 10

// ErrBadStatus is returned for responses outside 2xx.
var ErrBadStatus = errors.New("unexpected HTTP status")

// Options configures requests made by a Client.
type Options struct {
	UserAgent      string
	Referer        string
	Cookie         string
	Header         http.Header // extra request headers
	ConnectTimeout time.Duration
	HTTP3          bool
}

// Client issues the HEAD probe and the download GET with the same headers
// and transport.
type Client struct {
	opts   Options
	client *http.Client
	h3     *http3.Transport
}

// NewClient builds a Client. HTTP/3 is used exclusively when opts.HTTP3 is
// set; otherwise the standard transport negotiates HTTP/1.1 or HTTP/2.
func NewClient(opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	c := &Client{opts: opts}
	var transport http.RoundTripper
	if opts.HTTP3 {
		c.h3 = &http3.Transport{
			TLSClientConfig: &tls.Config{
				NextProtos: []string{"h3"},
			},
			QUICConfig: &quic.Config{
				HandshakeIdleTimeout: opts.ConnectTimeout,
			},
		}
		transport = c.h3
	} else {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.ConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		}
	}

	c.client = &http.Client{
		Transport: transport,
		// Keep caller-provided headers (cookies, referer) across redirects.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			for key, vals := range via[0].Header {
				req.Header[key] = vals
			}
			return nil
		},
	}
	return c
}

// NewRequest creates a request carrying the configured headers.
func (c *Client) NewRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}

	for key, vals := range c.opts.Header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.Referer != "" {
		req.Header.Set("Referer", c.opts.Referer)
	}
	if c.opts.Cookie != "" {
		req.Header.Set("Cookie", c.opts.Cookie)
	}
	return req, nil
}

// Do sends a request built by NewRequest and rejects non-2xx responses.
// The body is closed on error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s %s: %d", ErrBadStatus, req.Method, req.URL, resp.StatusCode)
	}
	return resp, nil
}

// Get starts a download request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Close releases the HTTP/3 transport, if any.
func (c *Client) Close() error {
	if c == nil || c.h3 == nil {
		return nil
	}
	if err := c.h3.Close(); err != nil {
		utils.Debug("Error closing HTTP/3 transport: %v", err)
		return err
	}
	return nil
}
