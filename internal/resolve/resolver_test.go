package resolve

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
}

func TestResolve_ExtendedFilename(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{`attachment; filename*=UTF-8''na%C3%AFve%20file.txt`, "naïve file.txt"},
		{`attachment; filename*=utf-8''%E2%82%AC%20rates.pdf`, "€ rates.pdf"},
		{`attachment; filename*=UTF-8'en'caf%C3%A9.txt; size=3`, "café.txt"},
		{`attachment; filename="fallback.txt"; filename*=UTF-8''preferred.txt`, "preferred.txt"},
		{`attachment; filename*=UTF-8''a+b.txt`, "a+b.txt"},
	}

	for _, test := range tests {
		r := New(t.TempDir())
		res, err := r.ResolveDetailed("https://example.com/x", "", Headers{
			"Content-Disposition": {test.header},
		})
		if err != nil {
			t.Fatalf("ResolveDetailed(%q) error = %v", test.header, err)
		}
		if res.Name != test.expected {
			t.Errorf("ResolveDetailed(%q) name = %q, expected %q", test.header, res.Name, test.expected)
		}
		if res.Source != SourceDispositionUTF8 {
			t.Errorf("ResolveDetailed(%q) source = %v, expected %v", test.header, res.Source, SourceDispositionUTF8)
		}
		if filepath.Base(res.Path) != test.expected {
			t.Errorf("ResolveDetailed(%q) path = %q", test.header, res.Path)
		}
	}
}

func TestResolve_QuotedFilename(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	path, err := r.Resolve("https://example.com/x", "", Headers{
		"Content-Disposition": {`attachment; filename="notes.txt"`},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if path != filepath.Join(dir, "notes.txt") {
		t.Errorf("Resolve() = %q, expected notes.txt in %s", path, dir)
	}
}

func TestResolve_QuotedFilenameDecoding(t *testing.T) {
	tests := []struct {
		header      string
		expected    string
		decodeError bool
	}{
		{`attachment; filename="na%C3%AFve.txt"`, "naïve.txt", false},
		{`attachment; filename="100% real.txt"`, "100% real.txt", true},
		{`attachment; filename="say \"hi\".txt"`, "say _hi_.txt", false},
	}

	for _, test := range tests {
		r := New(t.TempDir())
		res, err := r.ResolveDetailed("https://example.com/x", "", Headers{
			"Content-Disposition": {test.header},
		})
		if err != nil {
			t.Fatalf("ResolveDetailed(%q) error = %v", test.header, err)
		}
		if res.Name != test.expected {
			t.Errorf("ResolveDetailed(%q) name = %q, expected %q", test.header, res.Name, test.expected)
		}
		if res.Source != SourceDispositionQuoted {
			t.Errorf("ResolveDetailed(%q) source = %v", test.header, res.Source)
		}
		if got := len(res.DecodeErrs) > 0; got != test.decodeError {
			t.Errorf("ResolveDetailed(%q) decode errors = %v, expected present=%t", test.header, res.DecodeErrs, test.decodeError)
		}
	}
}

func TestResolve_InvalidExtendedFallsBack(t *testing.T) {
	r := New(t.TempDir())

	// Broken filename* with a usable quoted name on the same line.
	res, err := r.ResolveDetailed("https://example.com/x", "", Headers{
		"Content-Disposition": {`attachment; filename*=UTF-8''bad%ZZ.txt; filename="good.txt"`},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if res.Name != "good.txt" {
		t.Errorf("name = %q, expected good.txt", res.Name)
	}
	if len(res.DecodeErrs) == 0 || !IsDecodingError(res.DecodeErrs[0]) {
		t.Errorf("expected a DecodingError to be recorded, got %v", res.DecodeErrs)
	}

	// Broken filename* alone falls through to Content-Type and the URL.
	res, err = r.ResolveDetailed("https://example.com/page", "", Headers{
		"Content-Disposition": {`attachment; filename*=UTF-8''%C3%28.txt`},
		"Content-Type":        {"text/html; charset=utf-8"},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if res.Name != "page.html" {
		t.Errorf("name = %q, expected page.html", res.Name)
	}
	if res.Source != SourceContentType {
		t.Errorf("source = %v, expected %v", res.Source, SourceContentType)
	}
	var de *DecodingError
	if len(res.DecodeErrs) == 0 || !errors.As(res.DecodeErrs[0], &de) {
		t.Fatalf("expected DecodingError, got %v", res.DecodeErrs)
	}
}

func TestResolve_UnquotedDispositionParam(t *testing.T) {
	r := New(t.TempDir())

	res, err := r.ResolveDetailed("https://example.com/x", "", Headers{
		"Content-Disposition": {`attachment; filename=plain.txt`},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if res.Name != "plain.txt" {
		t.Errorf("name = %q, expected plain.txt", res.Name)
	}
	if res.Source != SourceDispositionParam {
		t.Errorf("source = %v, expected %v", res.Source, SourceDispositionParam)
	}
}

func TestResolve_MultiValuedDisposition(t *testing.T) {
	r := New(t.TempDir())

	res, err := r.ResolveDetailed("https://example.com/x", "", Headers{
		"Content-Disposition": {"inline", `attachment; filename="second.txt"`},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if res.Name != "second.txt" {
		t.Errorf("name = %q, expected second.txt", res.Name)
	}
}

func TestResolve_ExtendedBeatsQuotedAcrossValues(t *testing.T) {
	r := New(t.TempDir())

	res, err := r.ResolveDetailed("https://example.com/x", "", Headers{
		"Content-Disposition": {
			`attachment; filename="first.txt"`,
			`attachment; filename*=UTF-8''second.txt`,
		},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if res.Name != "second.txt" {
		t.Errorf("name = %q, expected second.txt", res.Name)
	}
}

func TestResolve_CaseInsensitiveHeaderNames(t *testing.T) {
	r := New(t.TempDir())

	res, err := r.ResolveDetailed("https://example.com/x", "", Headers{
		"content-disposition": {`attachment; filename="lower.txt"`},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if res.Name != "lower.txt" {
		t.Errorf("name = %q, expected lower.txt", res.Name)
	}
}

func TestResolve_DispositionTraversalIsSanitized(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	path, err := r.Resolve("https://example.com/x", "", Headers{
		"Content-Disposition": {`attachment; filename="../../etc/passwd"`},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if path != filepath.Join(dir, "passwd") {
		t.Errorf("Resolve() = %q, expected passwd inside %s", path, dir)
	}
}

func TestResolve_ContentTypeHTML(t *testing.T) {
	r := New(t.TempDir())

	path, err := r.Resolve("https://example.com/articles/today", "", Headers{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if filepath.Ext(path) != ".html" {
		t.Errorf("Resolve() = %q, expected .html extension", path)
	}
	if filepath.Base(path) != "today.html" {
		t.Errorf("Resolve() base = %q, expected today.html", filepath.Base(path))
	}
}

func TestResolve_ContentTypeUsesFirstValue(t *testing.T) {
	r := New(t.TempDir())

	res, err := r.ResolveDetailed("https://example.com/doc", ".bin", Headers{
		"Content-Type": {"application/pdf", "text/html"},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if res.Name != "doc.pdf" {
		t.Errorf("name = %q, expected doc.pdf", res.Name)
	}
}

func TestResolve_ContentTypeWithoutMappingUsesDefaultExt(t *testing.T) {
	r := New(t.TempDir())

	res, err := r.ResolveDetailed("https://example.com/blob", ".bin", Headers{
		"Content-Type": {"application/octet-stream"},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if res.Name != "blob.bin" {
		t.Errorf("name = %q, expected blob.bin", res.Name)
	}
	if res.Source != SourceURL {
		t.Errorf("source = %v, expected %v", res.Source, SourceURL)
	}
}

func TestResolve_NoHeadersUsesURLAndDefaultExt(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	path, err := r.Resolve("https://example.com/a/b", ".bin", Headers{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if path != filepath.Join(dir, "b.bin") {
		t.Errorf("Resolve() = %q, expected b.bin", path)
	}

	path, err = r.Resolve("https://example.com/a/b", ".bin", nil)
	if err != nil {
		t.Fatalf("Resolve(nil headers) error = %v", err)
	}
	if filepath.Base(path) != "b.bin" {
		t.Errorf("Resolve(nil headers) = %q, expected b.bin", path)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt")
	r := New(dir)
	headers := Headers{"Content-Disposition": {`attachment; filename="notes.txt"`}}

	first, err := r.Resolve("https://example.com/x", "", headers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := r.Resolve("https://example.com/x", "", headers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if first != second {
		t.Errorf("Resolve() not idempotent: %q then %q", first, second)
	}
}

func TestResolve_Collision(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "report.pdf")
	r := New(dir)

	for i := 0; i < 2; i++ {
		path, err := r.Resolve("https://example.com/files/report.pdf", "", nil)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if filepath.Base(path) != "report (1).pdf" {
			t.Errorf("call %d: Resolve() = %q, expected report (1).pdf", i+1, path)
		}
	}
}

func TestResolve_EmptyURLNoHeaders(t *testing.T) {
	r := New(t.TempDir())

	_, err := r.Resolve("", "", nil)
	if err == nil {
		t.Fatal("Expected NoCandidateNameError, got nil")
	}
	var nc *NoCandidateNameError
	if !errors.As(err, &nc) {
		t.Errorf("expected NoCandidateNameError, got %T: %v", err, err)
	}
	if !errors.Is(err, ErrNoCandidateName) {
		t.Error("errors.Is(err, ErrNoCandidateName) should be true")
	}
}

func TestResolve_MissingDirectory(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing"))

	_, err := r.Resolve("https://example.com/a.txt", "", nil)
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("expected FilesystemError, got %T: %v", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped fs.ErrNotExist, got %v", err)
	}
}

func TestResolve_DirectoryIsFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "plain")
	r := New(filepath.Join(dir, "plain"))

	_, err := r.Resolve("https://example.com/a.txt", "", nil)
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("expected ErrNotDirectory, got %v", err)
	}
}

func TestResolveRequest_UsesExplicitValues(t *testing.T) {
	dir := t.TempDir()
	r := New(filepath.Join(dir, "unused"))

	res, err := r.ResolveRequest(Request{
		URL:                "https://example.com/save",
		ContentDisposition: `attachment; filename="explicit.zip"`,
		MIMEType:           "text/html",
		Dir:                dir,
	})
	if err != nil {
		t.Fatalf("ResolveRequest() error = %v", err)
	}
	if res.Path != filepath.Join(dir, "explicit.zip") {
		t.Errorf("ResolveRequest() = %q", res.Path)
	}

	// Archive mode: multipart/related with an .mhtml default.
	res, err = r.ResolveRequest(Request{
		URL:        "https://example.com/page",
		MIMEType:   "multipart/related",
		DefaultExt: ".mhtml",
		Dir:        dir,
	})
	if err != nil {
		t.Fatalf("ResolveRequest() error = %v", err)
	}
	if res.Name != "page.mhtml" {
		t.Errorf("archive name = %q, expected page.mhtml", res.Name)
	}
}

func TestResolveName(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "chosen.txt")
	r := New(dir)

	res, err := r.ResolveName("sub/chosen.txt")
	if err != nil {
		t.Fatalf("ResolveName() error = %v", err)
	}
	if res.Path != filepath.Join(dir, "chosen (1).txt") {
		t.Errorf("ResolveName() = %q, expected chosen (1).txt", res.Path)
	}
	if res.Source != SourceExplicit {
		t.Errorf("source = %v, expected explicit", res.Source)
	}

	if _, err := r.ResolveName(".."); !errors.Is(err, ErrNoCandidateName) {
		t.Errorf("ResolveName(..) error = %v, expected ErrNoCandidateName", err)
	}
}

func TestCandidate_NoFilesystemAccess(t *testing.T) {
	name, source, _, err := Candidate("https://example.com/a/b", ".bin", nil)
	if err != nil {
		t.Fatalf("Candidate() error = %v", err)
	}
	if name != "b.bin" || source != SourceURL {
		t.Errorf("Candidate() = %q/%v, expected b.bin/url", name, source)
	}
}

func TestResolve_LongDispositionNameIsTruncated(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	long := strings.Repeat("a", 300) + ".txt"

	res, err := r.ResolveDetailed("https://example.com/file.bin", "", Headers{
		"Content-Disposition": {"attachment; filename*=UTF-8''" + long},
	})
	if err != nil {
		t.Fatalf("ResolveDetailed() error = %v", err)
	}
	if len(res.Name) > MaxNameBytes {
		t.Errorf("name is %d bytes, expected at most %d", len(res.Name), MaxNameBytes)
	}
	if !strings.HasSuffix(res.Name, ".txt") || res.Source != SourceDispositionUTF8 {
		t.Errorf("name = %q from %v, expected a .txt name from filename*", res.Name, res.Source)
	}

	// The counter suffix still fits once the truncated name is taken.
	touch(t, dir, res.Name)
	res, err = r.ResolveDetailed("https://example.com/file.bin", "", Headers{
		"Content-Disposition": {"attachment; filename*=UTF-8''" + long},
	})
	if err != nil {
		t.Fatalf("second ResolveDetailed() error = %v", err)
	}
	if !strings.HasSuffix(res.Path, " (1).txt") {
		t.Errorf("Path = %q, expected a (1) suffix", res.Path)
	}
}

func TestResolve_LongMultibyteNameIsTruncated(t *testing.T) {
	r := New(t.TempDir())
	long := strings.Repeat("%E6%96%87", 100) + ".pdf"

	path, err := r.Resolve("https://example.com/x", "", Headers{
		"Content-Disposition": {"attachment; filename*=UTF-8''" + long},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	base := filepath.Base(path)
	if len(base) > MaxNameBytes || !strings.HasSuffix(base, ".pdf") {
		t.Errorf("base = %q (%d bytes)", base, len(base))
	}
	if strings.TrimSuffix(base, ".pdf") != strings.Repeat("文", len(strings.TrimSuffix(base, ".pdf"))/3) {
		t.Errorf("stem %q was not cut on a character boundary", base)
	}
}
