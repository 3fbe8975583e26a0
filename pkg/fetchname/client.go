// Package fetchname is the embeddable API: resolve download filenames,
// probe URLs and fetch them into a directory.
package fetchname

import (
	"context"
	"errors"
	"os"
	"sync"

	"fetchname/internal/config"
	"fetchname/internal/download"
	"fetchname/internal/probe"
	"fetchname/internal/resolve"
	"fetchname/internal/utils"
)

var errNotInitialized = errors.New("client not initialized")

// Client resolves names into a single destination directory.
type Client struct {
	settings  *config.Settings
	resolver  *resolve.Resolver
	prober    *probe.Client
	probeOpts probe.Options

	closeOnce sync.Once
	closeErr  error
}

// NewClient builds a Client. The destination directory is not created;
// resolution into a missing directory fails with ErrNotDirectory.
func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}
	settings := resolveSettings(opts)

	// Debug and verbosity are process-wide switches; configure them once here.
	utils.SetVerbose(opts.Verbose)
	if opts.LogsDir != "" {
		if err := os.MkdirAll(opts.LogsDir, 0o755); err != nil {
			return nil, err
		}
		utils.ConfigureDebug(opts.LogsDir)
		utils.CleanupLogs(settings.LogRetention)
	}

	dir := opts.Dir
	if dir == "" {
		dir = settings.DownloadDir
	}

	r := resolve.New(utils.EnsureAbsPath(dir))
	r.MaxProbes = settings.MaxProbes

	probeOpts := probe.Options{
		UserAgent:      settings.UserAgent,
		Referer:        opts.Referer,
		Cookie:         opts.Cookie,
		ConnectTimeout: settings.ConnectTimeout,
		HTTP3:          settings.HTTP3 || opts.HTTP3,
	}
	if opts.UserAgent != "" {
		probeOpts.UserAgent = opts.UserAgent
	}
	if opts.ConnectTimeout > 0 {
		probeOpts.ConnectTimeout = opts.ConnectTimeout
	}

	return &Client{
		settings:  settings,
		resolver:  r,
		prober:    probe.NewClient(probeOpts),
		probeOpts: probeOpts,
	}, nil
}

// resolveSettings keeps the client usable even when settings are missing
// or fail to load from disk.
func resolveSettings(opts *ClientOptions) *config.Settings {
	if opts.Settings != nil {
		return opts.Settings
	}
	settings, err := config.LoadSettings()
	if err != nil {
		utils.Debug("fetchname: using default settings: %v", err)
		return config.DefaultSettings()
	}
	return settings
}

// Dir is the destination directory names are resolved into.
func (c *Client) Dir() string {
	if c == nil || c.resolver == nil {
		return ""
	}
	return c.resolver.Dir
}

// Resolve returns a path in Dir that did not exist at the time of the call.
// An empty defaultExt uses the client's configured default.
func (c *Client) Resolve(url, defaultExt string, headers Headers) (string, error) {
	if c == nil || c.resolver == nil {
		return "", errNotInitialized
	}
	return c.resolver.Resolve(url, c.defaultExt(defaultExt), headers)
}

// ResolveRequest resolves from the disposition and MIME type in req.
func (c *Client) ResolveRequest(req Request) (Result, error) {
	if c == nil || c.resolver == nil {
		return Result{}, errNotInitialized
	}
	req.DefaultExt = c.defaultExt(req.DefaultExt)
	return c.resolver.ResolveRequest(req)
}

// Probe sends a HEAD request in the background. The channel yields one
// ProbeResult and is then closed.
func (c *Client) Probe(ctx context.Context, url string) <-chan ProbeResult {
	if c == nil || c.prober == nil {
		done := make(chan ProbeResult, 1)
		done <- ProbeResult{URL: url, Err: errNotInitialized}
		close(done)
		return done
	}
	return c.prober.Start(ctx, url, c.resolver, c.settings.DefaultExt)
}

// Fetch downloads url into Dir, or opts.Dir when set.
func (c *Client) Fetch(ctx context.Context, url string, opts *FetchOptions) (*FetchResult, error) {
	if c == nil || c.resolver == nil {
		return nil, errNotInitialized
	}
	if opts == nil {
		opts = &FetchOptions{}
	}

	cfg := &download.Config{
		URL:        url,
		Dir:        c.resolver.Dir,
		Filename:   opts.Filename,
		DefaultExt: c.defaultExt(opts.DefaultExt),
		Archive:    opts.Archive,
		Overwrite:  opts.Overwrite,
		MaxProbes:  c.resolver.MaxProbes,
		Probe:      c.probeOpts,
		Progress:   opts.Progress,
	}
	if opts.Dir != "" {
		cfg.Dir = opts.Dir
	}
	return download.Fetch(ctx, cfg)
}

// Close releases transport resources. It is safe to call more than once.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closeErr = c.prober.Close()
	})
	return c.closeErr
}

func (c *Client) defaultExt(ext string) string {
	if ext != "" {
		return ext
	}
	return c.settings.DefaultExt
}
