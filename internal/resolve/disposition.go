package resolve

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"unicode/utf8"

	"github.com/vfaronov/httpheader"
)

var (
	// RFC 6266 extended form: filename*=UTF-8'lang'pct-encoded.
	extendedNameRegex = regexp.MustCompile(`(?i)filename\*\s*=\s*UTF-8'[A-Za-z0-9-]*'([^\s;]+)`)
	// Simple quoted form: filename="name". Quoted-pairs are allowed inside.
	quotedNameRegex = regexp.MustCompile(`(?i)(?:^|[;\s])filename\s*=\s*"((?:[^"\\]|\\.)*)"`)
	quotedPairRegex = regexp.MustCompile(`\\(.)`)

	errInvalidUTF8 = errors.New("invalid UTF-8")
)

// percentDecode decodes %XX escapes and requires the result to be UTF-8.
// "+" is left alone: neither RFC 8187 nor RFC 6266 uses form encoding.
func percentDecode(s string) (string, error) {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return "", &DecodingError{Value: s, Err: err}
	}
	if !utf8.ValidString(decoded) {
		return "", &DecodingError{Value: s, Err: errInvalidUTF8}
	}
	return decoded, nil
}

// matchExtended looks for filename*=UTF-8''... in a single header value.
func matchExtended(raw string) (name string, found bool, err error) {
	m := extendedNameRegex.FindStringSubmatch(raw)
	if m == nil {
		return "", false, nil
	}
	name, err = percentDecode(m[1])
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// matchQuoted looks for filename="..." in a single header value. Servers do
// not agree on whether this form is percent-encoded, so decoding is applied
// when it succeeds and the literal text is kept when it does not; in that
// case the DecodingError is returned alongside the literal name.
func matchQuoted(raw string) (name string, found bool, err error) {
	m := quotedNameRegex.FindStringSubmatch(raw)
	if m == nil {
		return "", false, nil
	}
	literal := quotedPairRegex.ReplaceAllString(m[1], "$1")
	decoded, err := percentDecode(literal)
	if err != nil {
		if !utf8.ValidString(literal) {
			return "", false, err
		}
		return literal, true, err
	}
	return decoded, true, nil
}

// parseDisposition falls back to a structured RFC 6266 parse, which copes
// with unquoted tokens and non-UTF-8 RFC 8187 charsets the regexes skip.
func parseDisposition(raw string) (name string, found bool, err error) {
	h := http.Header{HeaderContentDisposition: {raw}}
	_, filename, _ := httpheader.ContentDisposition(h)
	if filename == "" {
		return "", false, nil
	}
	if !utf8.ValidString(filename) {
		return "", false, &DecodingError{Value: filename, Err: errInvalidUTF8}
	}
	return filename, true, nil
}
