package utils

// Package utils holds the helpers shared by the resolver, the probe and the
// downloader: filename sanitizing, magic-byte sniffing and debug logging.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
)

// SniffSize is how many leading bytes are buffered for magic-number analysis.
const SniffSize = 512

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// SanitizeFilename removes characters that are unsafe or invalid across platforms.
// It returns "" when nothing usable is left.
func SanitizeFilename(name string) string {
	// Replace backslashes first so filepath.Base treats them as separators.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	name = strings.TrimSpace(name)

	name = ansiRegex.ReplaceAllString(name, "")

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	name = strings.NewReplacer(
		"/", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	).Replace(name)

	// Windows silently drops trailing dots and spaces.
	name = strings.TrimRight(name, ". ")
	return name
}

// TruncateFilename shortens name to at most maxBytes bytes, keeping its
// extension and cutting the stem on a UTF-8 boundary.
func TruncateFilename(name string, maxBytes int) string {
	if len(name) <= maxBytes {
		return name
	}
	ext := filepath.Ext(name)
	if ext == name || len(ext) > maxBytes/2 {
		ext = ""
	}
	stem := name[:len(name)-len(ext)]

	cut := maxBytes - len(ext)
	for cut > 0 && !utf8.RuneStart(stem[cut]) {
		cut--
	}
	stem = strings.TrimRight(stem[:cut], ". ")
	return stem + ext
}

// PeekHeader reads up to SniffSize bytes from r and returns them together
// with a reader that replays them before the rest of the stream.
func PeekHeader(r io.Reader) ([]byte, io.Reader, error) {
	header := make([]byte, SniffSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	header = header[:n]
	return header, io.MultiReader(bytes.NewReader(header), r), nil
}

// SniffExtension returns the extension (with leading dot) implied by the
// magic bytes in header, or "" when the type is unknown.
func SniffExtension(header []byte) string {
	kind, _ := filetype.Match(header)
	if kind == filetype.Unknown || kind.Extension == "" {
		return ""
	}
	return "." + kind.Extension
}

// ConvertBytesToHumanReadable formats a byte count for progress output.
func ConvertBytesToHumanReadable(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(n))
}
