package util

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidFileName is returned when nothing usable is left after sanitizing.
var ErrInvalidFileName = errors.New("invalid file name")

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// reserved on Windows filesystems; prefixed so they never collide with devices.
var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SanitizeFileName flattens an uploaded file name into a single safe path segment.
// Separators become underscores, non-ASCII is folded or dropped, and leading dots and
// underscores are trimmed, so "../../etc/passwd" becomes "etc_passwd".
func SanitizeFileName(name string) (string, error) {
	s := foldASCII(name)
	s = strings.NewReplacer("/", " ", "\\", " ").Replace(s)
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeFileChars.ReplaceAllString(s, "")
	s = strings.Trim(s, "._")
	if s == "" {
		return "", ErrInvalidFileName
	}
	base := strings.ToUpper(strings.SplitN(s, ".", 2)[0])
	if _, ok := windowsDeviceNames[base]; ok {
		s = "_" + s
	}
	return s, nil
}

func foldASCII(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
