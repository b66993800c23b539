package streamparse

import (
	"fmt"

	"github.com/intuitivelabs/bytescase"
)

// Sink is implemented by the caller to receive parsed headers and to
// resolve ambiguous framing.
type Sink interface {
	// HeaderComplete is invoked for each header (and for each trailer). A
	// true return causes the parser to yield control to the caller; the
	// caller may resume later by calling ParseHeaders again.
	HeaderComplete(name, value []byte) bool
	// MayHaveBody is invoked when framing is still Unknown at the end of
	// the header block. A false return shuts the message down with no
	// body; a true return leaves Unknown in place for ParseContent to
	// resolve (see the self-defining-body note on ParseContent).
	MayHaveBody() bool
}

// HeaderPhase is one state of the header-block state machine.
type HeaderPhase uint8

const (
	HeaderStart HeaderPhase = iota
	HeaderInName
	HeaderSpace
	HeaderInValue
	HeaderEnd
)

// ChunkPhase is one state of the chunked-body state machine.
type ChunkPhase uint8

const (
	ChunkStart ChunkPhase = iota
	ChunkSize
	ChunkParams
	ChunkBody
	ChunkLF
	ChunkTrailers
	ChunkEnd
)

var (
	transferEncodingName = []byte("transfer-encoding")
	contentLengthName    = []byte("content-length")
	chunkedValue         = []byte("chunked")
)

// Parser is a single-instance-per-connection, reusable HTTP/1.x message
// parser. It is not safe for concurrent use: callers serialize calls on a
// given instance, though independent instances on different goroutines
// share no mutable state.
type Parser struct {
	cfg Config
	tok *tokenizer

	headerPhase HeaderPhase
	chunkPhase  ChunkPhase
	framing     FramingMode

	headersDone  bool
	contentDone  bool
	shutdownFlag bool
	trailers     bool
	chunkSawCR   bool

	pendingName     string
	sink            Sink
	headerCRPending bool
	chunkCRPending  bool

	contentLength int64
	delivered     int64
	chunkLength   int64
	chunkPos      int64
}

// NewParser constructs a Parser with the given resource limits, applying
// DefaultConfig's values for any field left at its zero value.
func NewParser(cfg Config) *Parser {
	def := DefaultConfig()
	if cfg.InitialBufferSize <= 0 {
		cfg.InitialBufferSize = def.InitialBufferSize
	}
	if cfg.HeaderSizeLimit <= 0 {
		cfg.HeaderSizeLimit = def.HeaderSizeLimit
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	p := &Parser{cfg: cfg, tok: newTokenizer(cfg)}
	return p
}

// Reset clears all per-message state, preserving the configured limits, so
// the Parser can be reused for the next message on the same connection.
func (p *Parser) Reset() {
	p.tok.reset()
	p.headerPhase = HeaderStart
	p.chunkPhase = ChunkStart
	p.framing = FramingUnknown
	p.headersDone = false
	p.contentDone = false
	p.shutdownFlag = false
	p.trailers = false
	p.chunkSawCR = false
	p.pendingName = ""
	p.sink = nil
	p.headerCRPending = false
	p.chunkCRPending = false
	p.contentLength = 0
	p.delivered = 0
	p.chunkLength = 0
	p.chunkPos = 0
}

// Shutdown forces the Parser into a terminal state for the current
// message. It is idempotent; Reset is the only way back to a usable
// Parser.
func (p *Parser) Shutdown() {
	p.shutdownFlag = true
	p.headerPhase = HeaderEnd
}

// HeadersComplete reports whether the header block (the header fields,
// or for a chunked body the trailer block) has been fully consumed.
func (p *Parser) HeadersComplete() bool { return p.headersDone }

// ContentComplete reports whether the body has been fully delivered.
func (p *Parser) ContentComplete() bool { return p.contentDone }

// IsChunked reports whether the message uses chunked transfer coding.
func (p *Parser) IsChunked() bool { return p.framing == FramingChunked }

// DefinedContentLength reports whether the message framing is a known
// Content-Length.
func (p *Parser) DefinedContentLength() bool { return p.framing == FramingLength }

// GetContentType returns the resolved body framing mode.
func (p *Parser) GetContentType() FramingMode { return p.framing }

// ForceEOFTerminated tells the parser that the body runs until the
// transport signals end of stream — the framing a caller resolves
// externally when a message permits a body but declares neither
// Content-Length nor chunked Transfer-Encoding (for example, an HTTP/1.0
// response with no Content-Length on a connection the caller will not
// reuse). It is only valid while framing is still Unknown and the header
// block has finished; otherwise it reports InvalidState.
func (p *Parser) ForceEOFTerminated() error {
	if !p.headersDone || p.framing != FramingUnknown {
		return &InvalidState{Op: "ForceEOFTerminated"}
	}
	p.framing = FramingEOFTerminated
	return nil
}

func (p *Parser) fail(pos int, format string, args ...interface{}) error {
	p.Shutdown()
	return badRequest(pos, format, args...)
}

// ParseHeaders consumes header bytes from in, emitting each (name, value)
// pair to sink as it is parsed. It returns true when the header block (or,
// during chunked trailers, the trailer block) is fully consumed or when
// sink requested early exit by returning true from HeaderComplete; false
// means more input is needed and ParseHeaders should be called again with
// the same sink once more bytes are available. Use HeadersComplete to
// distinguish genuine completion from an early-exit pause.
func (p *Parser) ParseHeaders(in *Input, sink Sink) (bool, error) {
	if p.shutdownFlag {
		return false, &InvalidState{Op: "ParseHeaders"}
	}
	if p.headerPhase == HeaderEnd && !p.trailers {
		return false, &InvalidState{Op: "ParseHeaders"}
	}
	p.sink = sink

	if p.headerPhase == HeaderStart {
		p.tok.resetLimit(p.cfg.HeaderSizeLimit)
		p.tok.clearBuffer()
		p.headerPhase = HeaderInName
	}

	for {
		c, ok, err := p.tok.next(in)
		if err != nil {
			return false, p.fail(in.Pos, "%s", err.Error())
		}
		if !ok {
			return false, nil
		}

		switch p.headerPhase {
		case HeaderInName:
			if p.headerCRPending {
				p.headerCRPending = false
				if c != '\n' {
					return false, p.fail(in.Pos, "malformed header: stray CR")
				}
			}
			switch {
			case c == '\r':
				// Only valid immediately before the LF that terminates the
				// line; headerCRPending enforces that on the next byte
				// instead of silently dropping a mid-token CR here.
				p.headerCRPending = true
			case c == '\n':
				if p.tok.bufferPosition() == 0 {
					p.headersDone = true
					p.headerPhase = HeaderEnd
					if p.trailers {
						p.Shutdown()
					} else if p.framing == FramingUnknown {
						if sink == nil || !sink.MayHaveBody() {
							p.framing = FramingNone
							p.contentDone = true
							p.Shutdown()
						}
					} else if p.framing == FramingNone {
						p.contentDone = true
						p.Shutdown()
					}
					return true, nil
				}
				name := p.tok.getString()
				p.tok.clearBuffer()
				if sink.HeaderComplete([]byte(name), nil) {
					return true, nil
				}
			case c == ':':
				p.pendingName = p.tok.getString()
				p.tok.clearBuffer()
				p.headerPhase = HeaderSpace
			default:
				p.tok.putByte(c)
			}
		case HeaderSpace:
			switch {
			case c == ' ' || c == '\t':
			case c == '\r':
			case c == '\n':
				return false, p.fail(in.Pos, "missing value for header %s", p.pendingName)
			default:
				p.headerPhase = HeaderInValue
				p.tok.putByte(c)
			}
		case HeaderInValue:
			if p.headerCRPending {
				p.headerCRPending = false
				if c != '\n' {
					return false, p.fail(in.Pos, "malformed header: stray CR")
				}
			}
			switch {
			case c == '\r':
				p.headerCRPending = true
			case c == '\n':
				value, verr := p.tok.getTrimmedString(in.Pos)
				if verr != nil {
					return false, p.fail(in.Pos, "missing value for header %s", p.pendingName)
				}
				p.tok.clearBuffer()
				name := p.pendingName
				if !p.trailers {
					if ferr := p.detectFraming(name, value, in.Pos); ferr != nil {
						return false, ferr
					}
				}
				p.headerPhase = HeaderInName
				if sink.HeaderComplete([]byte(name), []byte(value)) {
					return true, nil
				}
			default:
				p.tok.putByte(c)
			}
		default:
			return false, &InvalidState{Op: "ParseHeaders"}
		}
	}
}

// detectFraming inspects a just-completed header for the two headers that
// determine body framing. It is only called while framing is still
// Unknown and never while parsing trailers: trailers cannot alter framing.
func (p *Parser) detectFraming(name, value string, pos int) error {
	if p.framing != FramingUnknown {
		return nil
	}
	nameB := []byte(name)
	if bytescase.CmpEq(nameB, transferEncodingName) {
		if !bytescase.CmpEq([]byte(value), chunkedValue) {
			return p.fail(pos, "Unknown Transfer-Encoding")
		}
		p.framing = FramingChunked
		return nil
	}
	if bytescase.CmpEq(nameB, contentLengthName) {
		n, err := parseContentLength(value)
		if err != nil {
			return p.fail(pos, "Invalid Content-Length")
		}
		if n == 0 {
			p.framing = FramingNone
		} else {
			p.framing = FramingLength
			p.contentLength = n
		}
		return nil
	}
	return nil
}

func parseContentLength(v string) (int64, error) {
	if len(v) == 0 {
		return 0, fmt.Errorf("empty Content-Length")
	}
	var n int64
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-decimal Content-Length")
		}
		if n > (1<<62)/10 {
			return 0, fmt.Errorf("Content-Length overflow")
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}
