package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
)

// Sanitize strips characters that are invalid in file names on common
// filesystems, plus trailing dots and spaces. Names are NFC normalized so the
// same title always maps to the same path.
func Sanitize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(constants.InvalidPathChars, r) || r < 0x20 {
			return -1
		}
		return r
	}, norm.NFC.String(s))

	return strings.TrimSpace(strings.TrimRight(mapped, ". "))
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, constants.DirPermissions)
}

func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dst, err)
	}
	return nil
}

func CreateFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
}

func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, constants.FilePermissions)
}

// RemoveFile deletes path. A file that is already gone is not an error.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !IsNotExist(err) {
		return err
	}
	return nil
}

// FileExists reports whether a non-empty regular file exists at path.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
