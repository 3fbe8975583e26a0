package resolve

import (
	"mime"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// preferredExtensions pins the extension chosen for common media types so the
// result does not depend on the host's mime.types file.
var preferredExtensions = map[string]string{
	"text/html":                   ".html",
	"application/xhtml+xml":       ".xhtml",
	"text/plain":                  ".txt",
	"text/css":                    ".css",
	"text/csv":                    ".csv",
	"text/javascript":             ".js",
	"application/javascript":      ".js",
	"application/json":            ".json",
	"application/xml":             ".xml",
	"text/xml":                    ".xml",
	"application/pdf":             ".pdf",
	"application/zip":             ".zip",
	"application/gzip":            ".gz",
	"application/x-gzip":          ".gz",
	"application/x-tar":           ".tar",
	"application/x-7z-compressed": ".7z",
	"application/epub+zip":        ".epub",
	"multipart/related":           ".mhtml",
	"application/x-mimearchive":   ".mhtml",
	"message/rfc822":              ".mht",
	"image/jpeg":                  ".jpg",
	"image/png":                   ".png",
	"image/gif":                   ".gif",
	"image/webp":                  ".webp",
	"image/svg+xml":               ".svg",
	"image/x-icon":                ".ico",
	"audio/mpeg":                  ".mp3",
	"audio/ogg":                   ".ogg",
	"video/mp4":                   ".mp4",
	"video/webm":                  ".webm",

	"application/vnd.android.package-archive": ".apk",
}

// preferredTypes is the reverse of preferredExtensions plus aliases.
var preferredTypes = func() map[string]string {
	m := map[string]string{
		".htm":  "text/html",
		".jpeg": "image/jpeg",
		".text": "text/plain",
		".log":  "text/plain",
		".tgz":  "application/gzip",
	}
	for mt, ext := range preferredExtensions {
		if _, ok := m[ext]; !ok {
			m[ext] = mt
		}
	}
	// Canonical spellings win over aliases that share an extension.
	m[".js"] = "text/javascript"
	m[".xml"] = "application/xml"
	m[".gz"] = "application/gzip"
	m[".mhtml"] = "multipart/related"
	return m
}()

// normalizeMIME lowercases a media type and treats the generic binary type
// as "unknown".
func normalizeMIME(mimeType string) string {
	mimeType = strings.ToLower(mediaType(mimeType))
	if mimeType == "application/octet-stream" || mimeType == "binary/octet-stream" {
		return ""
	}
	return mimeType
}

// ExtensionForMIME returns the extension (with leading dot) for a media type,
// or "" when none is known.
func ExtensionForMIME(mimeType string) string {
	mimeType = normalizeMIME(mimeType)
	if mimeType == "" {
		return ""
	}
	if ext, ok := preferredExtensions[mimeType]; ok {
		return ext
	}

	var matches []string
	filetype.Types.Range(func(k, v any) bool {
		if t, ok := v.(types.Type); ok && t.MIME.Value == mimeType {
			matches = append(matches, k.(string))
		}
		return true
	})
	if len(matches) > 0 {
		sort.Strings(matches)
		return "." + matches[0]
	}

	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// MIMEForExtension returns the media type for an extension, or "" when unknown.
func MIMEForExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "" {
		return ""
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	if t, ok := preferredTypes[ext]; ok {
		return t
	}
	if t := filetype.GetType(ext[1:]); t != filetype.Unknown && t.MIME.Value != "" {
		return t.MIME.Value
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return strings.ToLower(mediaType(t))
	}
	return ""
}
