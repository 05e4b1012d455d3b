package object

import (
	"fmt"
	"io"
	"net/http"
)

// Sniff reads up to 512 bytes to detect the content type and returns a reader
// that replays those bytes ahead of the rest of r.
func Sniff(r io.Reader) (head []byte, mimeType string, err error) {
	var buf [512]byte
	n, readErr := io.ReadFull(r, buf[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return nil, "", fmt.Errorf("read sniff: %w", readErr)
	}
	head = append([]byte(nil), buf[:n]...)
	return head, http.DetectContentType(head), nil
}
