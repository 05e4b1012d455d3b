package s3

import (
	"io"
	"strings"
	"testing"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "cv.pdf", want: "cv.pdf"},
		{name: "simple prefix", prefix: "uploads", key: "cv.pdf", want: "uploads/cv.pdf"},
		{name: "prefix trailing slash", prefix: "uploads/", key: "cv.pdf", want: "uploads/cv.pdf"},
		{name: "prefix and key slashes", prefix: "/uploads/", key: "/results.csv", want: "uploads/results.csv"},
		{name: "nested prefix", prefix: "team/uploads", key: "cv.pdf", want: "team/uploads/cv.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	c := &countingReader{r: strings.NewReader("filename,prediction\n")}
	if _, err := io.Copy(io.Discard, c); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if c.n != 20 {
		t.Fatalf("expected 20 bytes counted, got %d", c.n)
	}
}
