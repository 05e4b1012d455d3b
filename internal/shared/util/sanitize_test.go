package util

import (
	"errors"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "resume.pdf", want: "resume.pdf"},
		{name: "traversal", input: "../../etc/passwd", want: "etc_passwd"},
		{name: "windows traversal", input: `..\..\windows\system32\cv.pdf`, want: "windows_system32_cv.pdf"},
		{name: "spaces", input: "My Resume 2024.pdf", want: "My_Resume_2024.pdf"},
		{name: "accents folded", input: "résumé.pdf", want: "resume.pdf"},
		{name: "hidden file", input: ".bashrc", want: "bashrc"},
		{name: "symbols dropped", input: "cv$(rm -rf).pdf", want: "cvrm_-rf.pdf"},
		{name: "device name", input: "con.pdf", want: "_con.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := SanitizeFileName(tt.input)
			if err != nil {
				t.Fatalf("SanitizeFileName(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileNameRejectsEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "../..", "日本語"} {
		if _, err := SanitizeFileName(input); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("SanitizeFileName(%q): expected ErrInvalidFileName, got %v", input, err)
		}
	}
}
