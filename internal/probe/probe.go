// Package probe fetches response headers for a URL with a HEAD request and
// resolves a download filename from them.
package probe

import (
	"context"
	"net/http"

	"fetchname/internal/resolve"
	"fetchname/internal/utils"
)

// Result is delivered exactly once by Start.
type Result struct {
	URL      string
	Status   int
	Headers  resolve.Headers
	Resolved resolve.Result
	// Err is a resolution failure; Resolved is unusable when set.
	Err error
	// ProbeErr is a network or status failure. Resolved then comes from the
	// URL and default extension alone.
	ProbeErr error
}

// Path is the resolved destination, or "" on failure.
func (r Result) Path() string {
	return r.Resolved.Path
}

// Head performs a blocking HEAD request and returns the response headers.
// There is no retry.
func (c *Client) Head(ctx context.Context, url string) (resolve.Headers, int, error) {
	req, err := c.NewRequest(ctx, http.MethodHead, url)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, 0, err
	}
	resp.Body.Close()
	return resolve.Headers(resp.Header), resp.StatusCode, nil
}

// Start probes url on its own goroutine and resolves a filename into r.Dir.
// The returned channel yields one Result and is then closed.
func (c *Client) Start(ctx context.Context, url string, r *resolve.Resolver, defaultExt string) <-chan Result {
	done := make(chan Result, 1)
	go func() {
		defer close(done)
		done <- c.Probe(ctx, url, r, defaultExt)
	}()
	return done
}

// Probe is the synchronous body of Start.
func (c *Client) Probe(ctx context.Context, url string, r *resolve.Resolver, defaultExt string) Result {
	res := Result{URL: url}

	headers, status, err := c.Head(ctx, url)
	if err != nil {
		utils.Debug("probe: HEAD %s failed: %v", url, err)
		res.ProbeErr = err
		res.Resolved, res.Err = r.ResolveDetailed(url, defaultExt, nil)
		return res
	}

	res.Status = status
	res.Headers = headers
	res.Resolved, res.Err = r.ResolveDetailed(url, defaultExt, headers)
	return res
}
