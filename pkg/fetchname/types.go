package fetchname

import (
	"fetchname/internal/config"
	"fetchname/internal/download"
	"fetchname/internal/probe"
	"fetchname/internal/resolve"
)

// Re-exported types for the public API to keep internal packages private
// while maintaining a stable surface for consumers.
type Settings = config.Settings

type Headers = resolve.Headers
type Request = resolve.Request
type Result = resolve.Result
type Source = resolve.Source

type ProbeResult = probe.Result

type Progress = download.Progress
type FetchResult = download.Result

type DecodingError = resolve.DecodingError
type NoCandidateNameError = resolve.NoCandidateNameError
type FilesystemError = resolve.FilesystemError

const (
	SourceURL               = resolve.SourceURL
	SourceDispositionUTF8   = resolve.SourceDispositionUTF8
	SourceDispositionQuoted = resolve.SourceDispositionQuoted
	SourceDispositionParam  = resolve.SourceDispositionParam
	SourceContentType       = resolve.SourceContentType
	SourceExplicit          = resolve.SourceExplicit
)

var (
	ErrNoCandidateName = resolve.ErrNoCandidateName
	ErrNotDirectory    = resolve.ErrNotDirectory
	ErrNoFreeName      = resolve.ErrNoFreeName
	ErrBadStatus       = probe.ErrBadStatus
	ErrExists          = download.ErrExists
)
