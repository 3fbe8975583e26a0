package clipboard

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
)

// maxURLLength rejects pasted blobs that are clearly not a single URL.
const maxURLLength = 2048

var (
	// ErrClipboardRead indicates an error reading from the clipboard.
	ErrClipboardRead = errors.New("failed to read from clipboard")
	// ErrInvalidURL indicates the text is not an http(s) URL.
	ErrInvalidURL = errors.New("not a valid http(s) URL")
	// ErrNoURL is returned when neither an argument nor the clipboard supplied a URL.
	ErrNoURL = errors.New("no URL given")
)

// readAll is swapped in tests.
var readAll = clipboard.ReadAll

// Validator accepts absolute URLs with an allowed scheme and a host.
type Validator struct {
	allowedSchemes map[string]bool
}

func NewValidator() *Validator {
	return &Validator{
		allowedSchemes: map[string]bool{"http": true, "https": true},
	}
}

// ExtractURL returns text as a normalized URL, or "" if it is not one.
func (v *Validator) ExtractURL(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > maxURLLength || strings.ContainsAny(text, "\n\r") {
		return ""
	}

	parsed, err := url.Parse(text)
	if err != nil {
		return ""
	}
	if !v.allowedSchemes[strings.ToLower(parsed.Scheme)] || strings.TrimSpace(parsed.Host) == "" {
		return ""
	}
	return parsed.String()
}

// ReadURL reads the clipboard and returns the URL it holds.
func ReadURL() (string, error) {
	text, err := readAll()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClipboardRead, err)
	}

	u := NewValidator().ExtractURL(text)
	if u == "" {
		return "", ErrInvalidURL
	}
	return u, nil
}

// URLFromArgs picks the command's target URL: the clipboard when
// fromClipboard is set, otherwise the first argument, which must validate.
func URLFromArgs(args []string, fromClipboard bool) (string, error) {
	if fromClipboard {
		return ReadURL()
	}
	if len(args) == 0 {
		return "", ErrNoURL
	}
	u := NewValidator().ExtractURL(args[0])
	if u == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, args[0])
	}
	return u, nil
}
