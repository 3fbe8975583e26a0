package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// PartialSuffix marks an in-progress download. A name whose partial sibling
// exists is treated as taken so concurrent downloads do not clobber it.
const PartialSuffix = ".part"

// DefaultMaxProbes bounds the "name (n).ext" search.
const DefaultMaxProbes = 10000

// MaxNameBytes caps candidate names below the common 255-byte limit, leaving
// room for a " (n)" counter and PartialSuffix.
const MaxNameBytes = 255 - len(" (999999)") - len(PartialSuffix)

var counterRegex = regexp.MustCompile(`^(.*) \((\d+)\)$`)

// UniquePath returns dir/name if neither it nor its partial sibling exists,
// otherwise the first free "stem (n).ext". A stem that already ends in
// " (n)" continues from n+1.
//
// A leftover name.part from an interrupted download makes name count as
// taken even when name itself does not exist, so the result is then
// "stem (1).ext". This is stricter than checking name alone.
//
// The check is stat-only and not atomic: another writer can take the slot
// between this call and file creation. Callers that need atomicity create
// the file with O_EXCL and resolve again on conflict.
func UniquePath(dir, name string, maxProbes int) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", &FilesystemError{Op: "stat", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return "", &FilesystemError{Op: "stat", Path: dir, Err: ErrNotDirectory}
	}
	if maxProbes <= 0 {
		maxProbes = DefaultMaxProbes
	}

	first := filepath.Join(dir, name)
	free, err := isFree(first)
	if err != nil {
		return "", err
	}
	if free {
		return first, nil
	}

	stem, ext := splitName(name)
	base, counter := stem, 1
	if m := counterRegex.FindStringSubmatch(stem); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil && n > 0 && m[1] != "" {
			base, counter = m[1], n+1
		}
	}

	for i := 0; i < maxProbes; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, counter+i, ext))
		free, err := isFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", &FilesystemError{Op: "probe", Path: first, Err: ErrNoFreeName}
}

func isFree(path string) (bool, error) {
	for _, p := range []string{path, path + PartialSuffix} {
		_, err := os.Lstat(p)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, &FilesystemError{Op: "stat", Path: p, Err: err}
		}
	}
	return true, nil
}
