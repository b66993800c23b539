package streamparse

// tokenizer is the single chokepoint through which every byte of a message
// passes. It reads one byte at a time from the caller's Input, accumulates
// the bytes of whatever token is currently being built (a header name, a
// header value, a chunk-size digit run), and enforces a resettable
// size-limit checkpoint: each delivered byte counts against the limit
// installed by the most recent resetLimit call, and exceeding it fails the
// message with a BadRequest. Keeping this accounting in one place, rather
// than duplicated in the header and chunk state machines, is what lets
// those state machines resume cleanly across arbitrarily split input
// buffers without a separate "what phase was I in" side channel — the
// accumulation buffer holds only the current token, never the whole stream.
type tokenizer struct {
	buf      []byte
	limit    int
	consumed int
}

func newTokenizer(cfg Config) *tokenizer {
	size := cfg.InitialBufferSize
	if size <= 0 {
		size = 256
	}
	return &tokenizer{buf: make([]byte, 0, size)}
}

func (t *tokenizer) reset() {
	t.buf = t.buf[:0]
	t.limit = 0
	t.consumed = 0
}

// resetLimit installs a new size-limit checkpoint before a new bounded
// phase (a header block, a trailer block, a chunk-size line) begins.
func (t *tokenizer) resetLimit(n int) {
	t.limit = n
	t.consumed = 0
}

// next returns the next byte from in, or (0, false) when in has no more
// bytes available right now. Every byte returned here increments the
// size-limit counter; exceeding the configured ceiling returns a
// BadRequest.
func (t *tokenizer) next(in *Input) (byte, bool, error) {
	c, ok := in.peek()
	if !ok {
		return 0, false, nil
	}
	in.Pos++
	t.consumed++
	if t.limit > 0 && t.consumed > t.limit {
		return 0, false, badRequest(in.Pos, "size limit exceeded")
	}
	return c, true, nil
}

// putByte appends c to the accumulation buffer.
func (t *tokenizer) putByte(c byte) {
	t.buf = append(t.buf, c)
}

// clearBuffer empties the accumulation buffer without touching the
// size-limit checkpoint.
func (t *tokenizer) clearBuffer() {
	t.buf = t.buf[:0]
}

// bufferPosition returns the number of bytes currently held in the
// accumulation buffer.
func (t *tokenizer) bufferPosition() int {
	return len(t.buf)
}

// getString returns a copy of the accumulation buffer's bytes as a string.
// HTTP/1.x field-names and values are ASCII in practice; this does no
// UTF-8 validation of its own and simply passes the bytes through, which is
// safe for well-formed ASCII input and harmless (if not meaningful) for
// anything else.
func (t *tokenizer) getString() string {
	return string(t.buf)
}

// getTrimmedString returns the accumulation buffer's contents with
// surrounding OWS (space and tab) trimmed, failing if nothing remains.
func (t *tokenizer) getTrimmedString(pos int) (string, error) {
	b := t.buf
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	if len(b) == 0 {
		return "", badRequest(pos, "empty token")
	}
	return string(b), nil
}
