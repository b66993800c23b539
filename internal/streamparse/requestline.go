package streamparse

// LinePhase is the state of the request-line / status-line scanner.
type LinePhase uint8

const (
	LineField1 LinePhase = iota
	LineField2
	LineField3
	LineDone
)

// LineScanner incrementally tokenizes the three space-separated fields of
// an HTTP request-line ("METHOD SP target SP version") or status-line
// ("version SP status SP reason"), sharing the tokenizer chokepoint and
// line-ending policy (bare LF terminates, CR is tolerated) with the header
// parser. It is the "shared base" the header parser and body framer sit on
// top of: the same byte-at-a-time, resumable-across-partial-buffers
// discipline, applied to the one line that precedes the header block.
type LineScanner struct {
	tok       *tokenizer
	phase     LinePhase
	started   bool
	crPending bool
	f1, f2    string
}

// NewLineScanner constructs a LineScanner. The start line's size bound is
// not set here: it is the limit passed to the first Scan call after
// construction or Reset.
func NewLineScanner(cfg Config) *LineScanner {
	return &LineScanner{tok: newTokenizer(cfg), started: false}
}

// Reset clears scanner state for the next message on the same connection.
func (s *LineScanner) Reset() {
	s.tok.reset()
	s.phase = LineField1
	s.started = false
	s.crPending = false
	s.f1, s.f2 = "", ""
}

// Scan consumes bytes from in until the line's terminating LF is seen. It
// returns true once that LF has been consumed (a line with only two fields
// leaves Field3 empty); false means
// more input is needed and Scan should be called again once more bytes
// arrive. Field1 and Field2 are available once returned; Field3 only once
// Scan returns true.
func (s *LineScanner) Scan(in *Input, limit int) (bool, error) {
	if !s.started {
		s.tok.resetLimit(limit)
		s.started = true
	}
	for {
		c, ok, err := s.tok.next(in)
		if err != nil {
			return false, badRequest(in.Pos, "%s", err.Error())
		}
		if !ok {
			return false, nil
		}

		switch s.phase {
		case LineField1:
			switch {
			case c == ' ':
				s.f1 = s.tok.getString()
				s.tok.clearBuffer()
				s.phase = LineField2
			case c == '\r' || c == '\n':
				return false, badRequest(in.Pos, "malformed start line")
			default:
				s.tok.putByte(c)
			}
		case LineField2:
			switch {
			case c == ' ':
				s.f2 = s.tok.getString()
				s.tok.clearBuffer()
				s.phase = LineField3
			case c == '\n':
				// No third field present (e.g. a status line with no
				// reason phrase): field2 ends the line, field3 is empty.
				s.f2 = s.tok.getString()
				s.tok.clearBuffer()
				s.phase = LineDone
				return true, nil
			case c == '\r':
				// A CR also ends field2. The LF of a CRLF terminator is
				// then handled by LineField3 and leaves field3 empty; any
				// other bytes after the CR are read as field3.
				s.f2 = s.tok.getString()
				s.tok.clearBuffer()
				s.phase = LineField3
			default:
				s.tok.putByte(c)
			}
		case LineField3:
			if s.crPending {
				s.crPending = false
				if c != '\n' {
					return false, badRequest(in.Pos, "malformed start line: stray CR")
				}
				s.phase = LineDone
				return true, nil
			}
			switch {
			case c == '\r':
				// Only valid immediately before the LF that terminates the
				// line; crPending enforces that on the next byte.
				s.crPending = true
			case c == '\n':
				s.phase = LineDone
				return true, nil
			default:
				s.tok.putByte(c)
			}
		default:
			return false, &InvalidState{Op: "Scan"}
		}
	}
}

// Field1 returns the first space-delimited field (method, or HTTP version
// for a status line).
func (s *LineScanner) Field1() string { return s.f1 }

// Field2 returns the second space-delimited field (request target, or
// status code for a status line).
func (s *LineScanner) Field2() string { return s.f2 }

// Field3 returns the remainder of the line after the second field (HTTP
// version for a request line, or the reason phrase for a status line —
// which may itself legitimately contain spaces).
func (s *LineScanner) Field3() string { return s.tok.getString() }
