package clipboard

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractURL(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/file.zip", "https://example.com/file.zip"},
		{"  http://example.com/a?b=c  ", "http://example.com/a?b=c"},
		{"HTTPS://example.com/x", "https://example.com/x"},
		{"ftp://example.com/file", ""},
		{"file:///etc/passwd", ""},
		{"javascript:alert(1)", ""},
		{"example.com/file", ""},
		{"https://", ""},
		{"https://example.com/a\nhttps://example.com/b", ""},
		{"", ""},
		{"https://example.com/" + strings.Repeat("a", maxURLLength), ""},
	}

	for _, tt := range tests {
		if got := v.ExtractURL(tt.in); got != tt.want {
			t.Errorf("ExtractURL(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestURLFromArgs(t *testing.T) {
	if _, err := URLFromArgs(nil, false); !errors.Is(err, ErrNoURL) {
		t.Errorf("expected ErrNoURL, got %v", err)
	}
	if _, err := URLFromArgs([]string{"not a url"}, false); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
	got, err := URLFromArgs([]string{"https://example.com/x.bin", "ignored"}, false)
	if err != nil || got != "https://example.com/x.bin" {
		t.Errorf("URLFromArgs = %q, %v", got, err)
	}
}

func TestURLFromArgs_Clipboard(t *testing.T) {
	orig := readAll
	defer func() { readAll = orig }()

	readAll = func() (string, error) { return " https://example.com/pasted.pdf\n", nil }
	got, err := URLFromArgs([]string{"https://example.com/arg"}, true)
	if err != nil || got != "https://example.com/pasted.pdf" {
		t.Errorf("URLFromArgs = %q, %v; expected the clipboard URL", got, err)
	}

	readAll = func() (string, error) { return "just some text", nil }
	if _, err := URLFromArgs(nil, true); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}

	readAll = func() (string, error) { return "", errors.New("no display") }
	if _, err := URLFromArgs(nil, true); !errors.Is(err, ErrClipboardRead) {
		t.Errorf("expected ErrClipboardRead, got %v", err)
	}
}
