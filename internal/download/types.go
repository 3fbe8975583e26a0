package download

import (
	"errors"
	"time"

	"fetchname/internal/probe"
	"fetchname/internal/resolve"
)

const (
	// LockFileName is created in the destination directory and flock'd while a
	// name is chosen and its partial file created.
	LockFileName = ".fetchname.lock"

	lockRetryDelay = 50 * time.Millisecond
	createAttempts = 3

	// ArchiveMIMEType and ArchiveExt name a page saved as a web archive.
	ArchiveMIMEType = "multipart/related"
	ArchiveExt      = ".mhtml"
)

var (
	// ErrExists is returned when an explicit filename is taken and
	// overwriting was not requested.
	ErrExists = errors.New("destination already exists")
	// ErrEmptyFilename is returned when an explicit filename sanitizes to nothing.
	ErrEmptyFilename = errors.New("filename is empty after sanitizing")
)

// Config describes a single download.
type Config struct {
	ID         string
	URL        string
	Dir        string
	Filename   string // explicit name; overrides header/URL resolution
	DefaultExt string
	Archive    bool
	Overwrite  bool
	MaxProbes  int
	Probe      probe.Options
	Progress   func(Progress)
}

// Progress is reported while the body is copied.
type Progress struct {
	ID         string
	Filename   string
	Downloaded int64
	Total      int64 // -1 when the server sent no length
	Done       bool
}

// Result describes a finished download.
type Result struct {
	ID      string
	URL     string
	Path    string
	Source  resolve.Source
	Size    int64
	Elapsed time.Duration
}
