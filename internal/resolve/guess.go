package resolve

import (
	"net/url"
	"path"
	"strings"

	"fetchname/internal/utils"
)

// fallbackBaseName is used when a URL has a host but no usable path segment.
const fallbackBaseName = "downloadfile"

// GuessFilename derives a filename from a URL, an optional media type and an
// optional default extension.
//
// The base name is the last non-empty path segment. An extension already on
// the base is kept unless mimeType names a different type, in which case the
// media type's extension replaces it. An unrecognized extension is treated as
// part of the base and the media type's extension is appended. A base without
// an extension takes the media type's extension, then defaultExt.
func GuessFilename(rawurl, mimeType, defaultExt string) (string, error) {
	rawurl = strings.TrimSpace(rawurl)
	if rawurl == "" {
		return "", &NoCandidateNameError{}
	}

	name, host := lastSegment(rawurl)
	name = utils.SanitizeFilename(name)
	if name == "" {
		if host == "" {
			return "", &NoCandidateNameError{URL: rawurl}
		}
		name = fallbackBaseName
	}

	stem, ext := splitName(name)
	mimeType = normalizeMIME(mimeType)

	switch {
	case ext != "" && mimeType != "":
		replacement := ExtensionForMIME(mimeType)
		if replacement == "" {
			break
		}
		switch fromExt := MIMEForExtension(ext); {
		case fromExt == "":
			// Not a real extension, e.g. the ".2" in "release-1.2".
			stem, ext = stem+ext, replacement
		case fromExt != mimeType:
			ext = replacement
		}
	case ext == "":
		if mimeType != "" {
			ext = ExtensionForMIME(mimeType)
		}
		if ext == "" {
			ext = normalizeExt(defaultExt)
		}
	}
	return stem + ext, nil
}

// lastSegment returns the percent-decoded last non-empty path segment of
// rawurl and the URL's host. Query and fragment are ignored.
func lastSegment(rawurl string) (segment, host string) {
	p := rawurl
	if u, err := url.Parse(rawurl); err == nil {
		p, host = u.Path, u.Host
	} else {
		// Not a parseable URL; cut query and fragment by hand.
		if i := strings.IndexAny(p, "?#"); i > -1 {
			p = p[:i]
		}
		if decoded, err := url.PathUnescape(p); err == nil {
			p = decoded
		}
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "", host
	}
	return path.Base(p), host
}

// splitName splits name into stem and extension. Dotfiles such as ".bashrc"
// have no extension.
func splitName(name string) (stem, ext string) {
	ext = path.Ext(name)
	if ext == name || ext == "." {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || ext == "." {
		return ""
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}
