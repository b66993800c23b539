package fastparser

import (
	"fmt"

	"github.com/shapestone/shape-http/internal/streamparse"
)

// headerlessSink discards header callbacks; it exists for callers that
// drive internal/streamparse's body framer over a synthetic header block
// (a single known Content-Length or Transfer-Encoding line) and have no
// use for the header values produced along the way — trailers, in
// particular, are accepted but not surfaced here.
type headerlessSink struct{}

func (headerlessSink) HeaderComplete(name, value []byte) bool { return false }
func (headerlessSink) MayHaveBody() bool                      { return true }

// Dechunk decodes a complete chunked transfer-encoded body held in memory.
// It drives internal/streamparse's incremental chunk state machine over
// the whole buffer in one pass, so whole-buffer callers (Parser.parseBody)
// get the same chunk semantics — CR tolerance, chunk extensions, trailers
// — as a connection streaming the body one partial read at a time.
func Dechunk(data []byte) ([]byte, error) {
	p := streamparse.NewParser(streamparse.DefaultConfig())
	// A synthetic header block puts the parser directly into Chunked
	// framing without requiring the caller to have parsed real headers.
	if _, err := p.ParseHeaders(streamparse.NewInput([]byte("Transfer-Encoding: chunked\r\n\r\n")), headerlessSink{}); err != nil {
		return nil, fmt.Errorf("http: chunked encoding: %w", err)
	}

	in := streamparse.NewInput(data)
	var result []byte
	for !p.ContentComplete() {
		b, err := p.ParseContent(in)
		if err != nil {
			return nil, fmt.Errorf("http: chunked encoding: %w", err)
		}
		if b == nil {
			return nil, fmt.Errorf("http: chunked encoding: truncated chunked body")
		}
		result = append(result, b...)
	}

	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}
