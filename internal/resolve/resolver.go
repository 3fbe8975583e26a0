// Package resolve decides the filename a download is saved under.
//
// Names come from, in order: the RFC 6266 filename* parameter, the quoted
// filename parameter, a structured parse of Content-Disposition, the URL
// combined with Content-Type, and finally the URL with a default extension.
// The chosen name is then made unique within the destination directory.
package resolve

import (
	"errors"

	"fetchname/internal/utils"
)

// Source records which rule produced a candidate name.
type Source int

const (
	SourceURL Source = iota
	SourceDispositionUTF8
	SourceDispositionQuoted
	SourceDispositionParam
	SourceContentType
	SourceExplicit
)

func (s Source) String() string {
	switch s {
	case SourceDispositionUTF8:
		return "content-disposition filename*"
	case SourceDispositionQuoted:
		return "content-disposition filename"
	case SourceDispositionParam:
		return "content-disposition"
	case SourceContentType:
		return "content-type"
	case SourceExplicit:
		return "explicit"
	default:
		return "url"
	}
}

// Request is everything known about a download before its headers are
// fetched, as handed over by a browser's download callback.
type Request struct {
	URL                string
	ContentDisposition string
	MIMEType           string
	DefaultExt         string
	Dir                string
}

// Result is a resolved destination.
type Result struct {
	Path   string
	Name   string
	Source Source
	// DecodeErrs holds the recoverable DecodingErrors met along the way.
	DecodeErrs []error
}

// Resolver resolves names into a fixed destination directory.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	Dir       string
	MaxProbes int
}

// New returns a Resolver for dir.
func New(dir string) *Resolver {
	return &Resolver{Dir: dir, MaxProbes: DefaultMaxProbes}
}

// Resolve returns a path in r.Dir that did not exist at the time of the call.
func (r *Resolver) Resolve(rawurl, defaultExt string, headers Headers) (string, error) {
	res, err := r.ResolveDetailed(rawurl, defaultExt, headers)
	return res.Path, err
}

// ResolveDetailed is Resolve with the rule that fired and any decode errors.
func (r *Resolver) ResolveDetailed(rawurl, defaultExt string, headers Headers) (Result, error) {
	return r.resolveIn(r.Dir, rawurl, defaultExt, headers)
}

// ResolveRequest resolves from the disposition and MIME type carried by req.
// req.Dir overrides r.Dir when set.
func (r *Resolver) ResolveRequest(req Request) (Result, error) {
	headers := Headers{}
	if req.ContentDisposition != "" {
		headers.Add(HeaderContentDisposition, req.ContentDisposition)
	}
	if req.MIMEType != "" {
		headers.Add(HeaderContentType, req.MIMEType)
	}
	dir := req.Dir
	if dir == "" {
		dir = r.Dir
	}
	return r.resolveIn(dir, req.URL, req.DefaultExt, headers)
}

// ResolveName makes an already chosen name unique in r.Dir. The name is
// sanitized first.
func (r *Resolver) ResolveName(name string) (Result, error) {
	clean := utils.TruncateFilename(utils.SanitizeFilename(name), MaxNameBytes)
	if clean == "" {
		return Result{Source: SourceExplicit}, &NoCandidateNameError{}
	}
	path, err := UniquePath(r.Dir, clean, r.MaxProbes)
	if err != nil {
		return Result{Name: clean, Source: SourceExplicit}, err
	}
	return Result{Path: path, Name: clean, Source: SourceExplicit}, nil
}

func (r *Resolver) resolveIn(dir, rawurl, defaultExt string, headers Headers) (Result, error) {
	name, source, decodeErrs, err := Candidate(rawurl, defaultExt, headers)
	res := Result{Name: name, Source: source, DecodeErrs: decodeErrs}
	if err != nil {
		utils.Debug("resolve: no candidate for %q: %v", rawurl, err)
		return res, err
	}

	path, err := UniquePath(dir, name, r.MaxProbes)
	if err != nil {
		utils.Debug("resolve: uniqueness check failed in %s: %v", dir, err)
		return res, err
	}
	res.Path = path
	utils.Debug("resolve: %q -> %s (from %s)", rawurl, path, source)
	return res, nil
}

// Candidate returns the filename implied by the URL and headers before the
// uniqueness step, capped at MaxNameBytes. It touches no filesystem.
func Candidate(rawurl, defaultExt string, headers Headers) (string, Source, []error, error) {
	name, source, decodeErrs, err := candidate(rawurl, defaultExt, headers)
	if err == nil {
		name = utils.TruncateFilename(name, MaxNameBytes)
	}
	return name, source, decodeErrs, err
}

func candidate(rawurl, defaultExt string, headers Headers) (string, Source, []error, error) {
	var decodeErrs []error
	dispositions := headers.Values(HeaderContentDisposition)

	rules := []struct {
		source Source
		match  func(string) (string, bool, error)
	}{
		{SourceDispositionUTF8, matchExtended},
		{SourceDispositionQuoted, matchQuoted},
		{SourceDispositionParam, parseDisposition},
	}
	for _, rule := range rules {
		for _, raw := range dispositions {
			name, found, err := rule.match(raw)
			if err != nil {
				utils.Debug("resolve: %v", err)
				decodeErrs = append(decodeErrs, err)
			}
			if !found {
				continue
			}
			if clean := utils.SanitizeFilename(name); clean != "" {
				return clean, rule.source, decodeErrs, nil
			}
		}
	}

	if types := headers.Values(HeaderContentType); len(types) > 0 {
		mimeType := mediaType(types[0])
		name, err := GuessFilename(rawurl, mimeType, defaultExt)
		source := SourceContentType
		if normalizeMIME(mimeType) == "" {
			source = SourceURL
		}
		return name, source, decodeErrs, err
	}

	name, err := GuessFilename(rawurl, "", defaultExt)
	return name, SourceURL, decodeErrs, err
}

// IsDecodingError reports whether err is a DecodingError.
func IsDecodingError(err error) bool {
	var de *DecodingError
	return errors.As(err, &de)
}
