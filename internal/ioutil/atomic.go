// Package ioutil provides crash-safe file writes: every output file goes
// to a temp file in the target's own directory, then is renamed into
// place. Rename is atomic on POSIX, so a crash mid-write never leaves a
// half-written schedule/progress file behind. Grounded on
// original_source/code/helpers/safe_io.py's safe_write_csv/safe_write_toml,
// which use the equivalent tempfile+os.replace pattern.
package ioutil

import (
	"os"
	"path/filepath"
	"strings"
)

// csvFormulaPrefixes mirrors safe_io.py's _FORMULA_PREFIXES: string cells
// starting with one of these can be interpreted as a formula by Excel when
// a CSV is opened there.
const csvFormulaPrefixes = "=+-@\t\r"

// SanitizeCSVField prefixes s with a single quote when it starts with a
// character that Excel would interpret as a formula trigger. Safe to call
// on every string field before writing a CSV row.
func SanitizeCSVField(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsRune(csvFormulaPrefixes, rune(s[0])) {
		return "'" + s
	}
	return s
}

// WriteFileAtomic writes data to path via a temp file in path's directory
// followed by a rename, so readers never observe a partially written file.
// The target directory is created if missing.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// WriteFunc atomically writes the result of calling write with a *os.File
// positioned at a fresh temp file in path's directory. Useful for callers
// that want to stream (e.g. encoding/csv.Writer) rather than build a []byte
// up front.
func WriteFunc(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
