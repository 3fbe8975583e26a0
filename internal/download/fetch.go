// Package download saves a URL under a resolved, collision-free name.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"fetchname/internal/probe"
	"fetchname/internal/resolve"
	"fetchname/internal/utils"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Fetch downloads config.URL into config.Dir.
//
// Name selection and creation of the partial file happen under an flock on
// the directory, and the partial file is opened with O_EXCL, so concurrent
// fetches never pick the same name. Writers outside this package can still
// race with the final rename.
func Fetch(ctx context.Context, config *Config) (*Result, error) {
	// Defaults are applied to a copy; the caller's Config may be reused.
	c := *config
	cfg := &c
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	cfg.Dir = utils.EnsureAbsPath(cfg.Dir)

	// Auto-create output directory for CLI use where target is user-provided.
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, &resolve.FilesystemError{Op: "mkdir", Path: cfg.Dir, Err: err}
	}

	client := probe.NewClient(cfg.Probe)
	defer client.Close()

	utils.Debug("Fetch[%s]: GET %s", shortID(cfg.ID), cfg.URL)
	start := time.Now()
	resp, err := client.Get(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	header, body, err := utils.PeekHeader(resp.Body)
	if err != nil {
		return nil, err
	}

	destPath, source, part, err := reserve(ctx, cfg, resolve.Headers(resp.Header), header)
	if err != nil {
		return nil, err
	}
	partPath := part.Name()
	utils.Debug("Fetch[%s]: destination %s (from %s)", shortID(cfg.ID), destPath, source)

	written, copyErr := copyWithProgress(ctx, part, body, cfg, filepath.Base(destPath), resp.ContentLength)
	closeErr := part.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rmErr := os.Remove(partPath); rmErr != nil {
			utils.Debug("Fetch[%s]: failed to remove %s: %v", shortID(cfg.ID), partPath, rmErr)
		}
		return nil, fmt.Errorf("downloading %s: %w", cfg.URL, copyErr)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return nil, &resolve.FilesystemError{Op: "rename", Path: destPath, Err: err}
	}

	elapsed := time.Since(start)
	utils.Debug("Fetch[%s]: %s completed in %v (%d bytes)", shortID(cfg.ID), destPath, elapsed, written)
	return &Result{
		ID:      cfg.ID,
		URL:     cfg.URL,
		Path:    destPath,
		Source:  source,
		Size:    written,
		Elapsed: elapsed,
	}, nil
}

// reserve picks the destination under the directory lock and creates its
// partial file exclusively.
func reserve(ctx context.Context, cfg *Config, headers resolve.Headers, sniffed []byte) (string, resolve.Source, *os.File, error) {
	lock := flock.New(filepath.Join(cfg.Dir, LockFileName))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", 0, nil, fmt.Errorf("locking %s: %w", cfg.Dir, err)
	}
	if !locked {
		return "", 0, nil, fmt.Errorf("locking %s: lock not acquired", cfg.Dir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			utils.Debug("Error releasing lock: %v", err)
		}
	}()

	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		destPath, source, err := choosePath(cfg, headers, sniffed)
		if err != nil {
			return "", 0, nil, err
		}

		part, err := os.OpenFile(destPath+resolve.PartialSuffix, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return destPath, source, part, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", 0, nil, &resolve.FilesystemError{Op: "create", Path: destPath + resolve.PartialSuffix, Err: err}
		}
		// Someone outside the lock took the slot between stat and create.
		utils.Debug("Fetch[%s]: %s taken, resolving again", shortID(cfg.ID), destPath)
		lastErr = err
	}
	return "", 0, nil, &resolve.FilesystemError{Op: "create", Path: cfg.Dir, Err: lastErr}
}

// choosePath applies the explicit filename or the resolver, then borrows an
// extension from the sniffed bytes if the name still has none.
func choosePath(cfg *Config, headers resolve.Headers, sniffed []byte) (string, resolve.Source, error) {
	r := resolve.New(cfg.Dir)
	if cfg.MaxProbes > 0 {
		r.MaxProbes = cfg.MaxProbes
	}

	var (
		res resolve.Result
		err error
	)
	if cfg.Archive {
		res, err = r.ResolveRequest(resolve.Request{
			URL:        cfg.URL,
			MIMEType:   ArchiveMIMEType,
			DefaultExt: ArchiveExt,
		})
	} else {
		res, err = r.ResolveDetailed(cfg.URL, cfg.DefaultExt, headers)
	}

	if cfg.Filename != "" {
		return explicitPath(cfg, res.Name)
	}
	if err != nil {
		return "", res.Source, err
	}

	if filepath.Ext(res.Name) == "" {
		if ext := utils.SniffExtension(sniffed); ext != "" {
			utils.Debug("Fetch[%s]: added extension from magic type: %s", shortID(cfg.ID), ext)
			name := utils.TruncateFilename(res.Name+ext, resolve.MaxNameBytes)
			path, err := resolve.UniquePath(cfg.Dir, name, r.MaxProbes)
			return path, res.Source, err
		}
	}
	return res.Path, res.Source, nil
}

// explicitPath keeps a user-supplied name, borrowing the resolved extension
// when the user left it off.
func explicitPath(cfg *Config, resolvedName string) (string, resolve.Source, error) {
	name := utils.SanitizeFilename(cfg.Filename)
	if name == "" {
		return "", resolve.SourceExplicit, ErrEmptyFilename
	}
	if filepath.Ext(name) == "" {
		name += filepath.Ext(resolvedName)
	}
	name = utils.TruncateFilename(name, resolve.MaxNameBytes)

	path := filepath.Join(cfg.Dir, name)
	if cfg.Overwrite {
		return path, resolve.SourceExplicit, nil
	}
	if _, err := os.Lstat(path); err == nil {
		return "", resolve.SourceExplicit, fmt.Errorf("%w: %s", ErrExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", resolve.SourceExplicit, &resolve.FilesystemError{Op: "stat", Path: path, Err: err}
	}
	return path, resolve.SourceExplicit, nil
}

type progressWriter struct {
	w        io.Writer
	cfg      *Config
	filename string
	total    int64
	written  int64
	last     time.Time
}

const progressInterval = 250 * time.Millisecond

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if now := time.Now(); now.Sub(p.last) >= progressInterval {
		p.last = now
		p.report(false)
	}
	return n, err
}

func (p *progressWriter) report(done bool) {
	if p.cfg.Progress == nil {
		return
	}
	p.cfg.Progress(Progress{
		ID:         p.cfg.ID,
		Filename:   p.filename,
		Downloaded: p.written,
		Total:      p.total,
		Done:       done,
	})
}

// ctxReader stops the copy once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}

func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, cfg *Config, filename string, total int64) (int64, error) {
	pw := &progressWriter{w: dst, cfg: cfg, filename: filename, total: total}
	pw.report(false)
	n, err := io.Copy(pw, ctxReader{ctx: ctx, r: src})
	if err != nil {
		return n, err
	}
	pw.report(true)
	return n, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
