package http

import (
	"bytes"
	"io"

	"github.com/shapestone/shape-http/internal/fastparser"
)

// Validate checks that input is a syntactically valid HTTP/1.1 message per
// RFC 9112. It runs the full parse of the start line, the headers and the
// body framing, so a body shorter than its Content-Length is an error.
// Returns nil if valid, or a descriptive error identifying the problem.
func Validate(input string) error {
	return fastparser.Validate([]byte(input))
}

// ValidateReader reads all data from r and validates it as an HTTP/1.1 message.
// See Validate for the validation semantics.
func ValidateReader(r io.Reader) error {
	data, err := readAll(r)
	if err != nil {
		return err
	}
	return fastparser.Validate(data)
}

// readAll reads all data from r into a bytes.Buffer.
func readAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
