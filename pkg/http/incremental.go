package http

import (
	"strconv"

	"github.com/shapestone/shape-http/internal/streamparse"
)

// IncrementalRequestParser parses a single HTTP/1.1 request from buffers
// that may arrive in arbitrarily small pieces, resuming cleanly across
// calls rather than requiring the whole message up front. It wraps the
// byte-at-a-time core in internal/streamparse with the Request-shaped
// bookkeeping UnmarshalRequest applies in one shot. Unlike Decoder, it
// never blocks on an io.Reader and never copies more than the caller asks
// it to: body fragments are appended into Request.Body as they arrive.
//
// A single instance parses one request; call Reset to reuse it for the
// next request on the same connection.
type IncrementalRequestParser struct {
	line   *streamparse.LineScanner
	core   *streamparse.Parser
	req    *Request
	lineOK bool
}

// NewIncrementalRequestParser constructs a parser using default resource
// limits; see streamparse.DefaultConfig.
func NewIncrementalRequestParser() *IncrementalRequestParser {
	cfg := streamparse.DefaultConfig()
	return &IncrementalRequestParser{
		line: streamparse.NewLineScanner(cfg),
		core: streamparse.NewParser(cfg),
		req:  &Request{},
	}
}

// Reset clears per-message state for reuse on the next request.
func (p *IncrementalRequestParser) Reset() {
	p.line.Reset()
	p.core.Reset()
	p.req = &Request{}
	p.lineOK = false
}

// ParseRequestLine consumes the request line ("METHOD target HTTP/1.1").
// It returns true once the line is fully recognized; false means more
// input is needed.
func (p *IncrementalRequestParser) ParseRequestLine(in *streamparse.Input) (bool, error) {
	if p.lineOK {
		return true, nil
	}
	done, err := p.line.Scan(in, 8192)
	if err != nil {
		return false, newParseErrorAtPos(err.Error(), in.Pos)
	}
	if !done {
		return false, nil
	}
	p.req.Method = p.line.Field1()
	p.req.Path = p.line.Field2()
	p.req.Version = p.line.Field3()
	p.lineOK = true
	return true, nil
}

// ParseHeaders consumes header bytes, appending each header to
// Request.Headers as it is parsed. The request line must already be
// complete. Returns true when the header block is fully consumed.
func (p *IncrementalRequestParser) ParseHeaders(in *streamparse.Input) (bool, error) {
	done, err := p.core.ParseHeaders(in, requestSink{p})
	if err != nil {
		return false, newParseErrorAtPos(err.Error(), in.Pos)
	}
	return done, nil
}

// ParseBody consumes the next available body fragment, appending it to
// Request.Body, and also returns it directly (aliasing in's buffer) so the
// caller may stream it elsewhere without waiting for the whole body.
func (p *IncrementalRequestParser) ParseBody(in *streamparse.Input) ([]byte, error) {
	b, err := p.core.ParseContent(in)
	if err != nil {
		return nil, newParseErrorAtPos(err.Error(), in.Pos)
	}
	if len(b) > 0 {
		p.req.Body = append(p.req.Body, b...)
	}
	return b, nil
}

// ForceEOFTerminated resolves an otherwise-ambiguous body as running until
// the caller observes end of stream; see streamparse.Parser.ForceEOFTerminated.
func (p *IncrementalRequestParser) ForceEOFTerminated() error {
	return p.core.ForceEOFTerminated()
}

// HeadersComplete reports whether the header block has been fully parsed.
func (p *IncrementalRequestParser) HeadersComplete() bool { return p.core.HeadersComplete() }

// ContentComplete reports whether the body has been fully delivered.
func (p *IncrementalRequestParser) ContentComplete() bool { return p.core.ContentComplete() }

// Request returns the request built up so far; valid to inspect even
// before ContentComplete, for callers that want headers as soon as they
// arrive.
func (p *IncrementalRequestParser) Request() *Request { return p.req }

type requestSink struct{ p *IncrementalRequestParser }

func (s requestSink) HeaderComplete(name, value []byte) bool {
	if value != nil {
		s.p.req.Headers.Add(string(name), string(value))
	}
	return false
}

// MayHaveBody follows RFC 9112 §6.3: requests using these methods are
// conventionally bodyless when neither framing header is present.
func (s requestSink) MayHaveBody() bool {
	switch s.p.req.Method {
	case "GET", "HEAD", "OPTIONS", "TRACE":
		return false
	default:
		return true
	}
}

// IncrementalResponseParser is IncrementalRequestParser's counterpart for
// responses: the status line determines MayHaveBody from the status code
// rather than the method, per RFC 9112 §6.3 (1xx, 204, and 304 never
// carry a body).
type IncrementalResponseParser struct {
	line   *streamparse.LineScanner
	core   *streamparse.Parser
	resp   *Response
	lineOK bool
}

// NewIncrementalResponseParser constructs a parser using default resource
// limits; see streamparse.DefaultConfig.
func NewIncrementalResponseParser() *IncrementalResponseParser {
	cfg := streamparse.DefaultConfig()
	return &IncrementalResponseParser{
		line: streamparse.NewLineScanner(cfg),
		core: streamparse.NewParser(cfg),
		resp: &Response{},
	}
}

// Reset clears per-message state for reuse on the next response.
func (p *IncrementalResponseParser) Reset() {
	p.line.Reset()
	p.core.Reset()
	p.resp = &Response{}
	p.lineOK = false
}

// ParseStatusLine consumes the status line ("HTTP/1.1 200 OK").
func (p *IncrementalResponseParser) ParseStatusLine(in *streamparse.Input) (bool, error) {
	if p.lineOK {
		return true, nil
	}
	done, err := p.line.Scan(in, 8192)
	if err != nil {
		return false, newParseErrorAtPos(err.Error(), in.Pos)
	}
	if !done {
		return false, nil
	}
	p.resp.Version = p.line.Field1()
	code, convErr := strconv.Atoi(p.line.Field2())
	if convErr != nil {
		return false, newParseErrorAtPos("invalid status code: "+p.line.Field2(), in.Pos)
	}
	p.resp.StatusCode = code
	p.resp.Reason = p.line.Field3()
	p.lineOK = true
	return true, nil
}

// ParseHeaders consumes header bytes, appending each header to
// Response.Headers as it is parsed.
func (p *IncrementalResponseParser) ParseHeaders(in *streamparse.Input) (bool, error) {
	done, err := p.core.ParseHeaders(in, responseSink{p})
	if err != nil {
		return false, newParseErrorAtPos(err.Error(), in.Pos)
	}
	return done, nil
}

// ParseBody consumes the next available body fragment, appending it to
// Response.Body and also returning it directly.
func (p *IncrementalResponseParser) ParseBody(in *streamparse.Input) ([]byte, error) {
	b, err := p.core.ParseContent(in)
	if err != nil {
		return nil, newParseErrorAtPos(err.Error(), in.Pos)
	}
	if len(b) > 0 {
		p.resp.Body = append(p.resp.Body, b...)
	}
	return b, nil
}

// ForceEOFTerminated resolves an otherwise-ambiguous body as running until
// the caller observes end of stream — the common case for an HTTP/1.0
// response, or any response on a connection the caller will not reuse.
func (p *IncrementalResponseParser) ForceEOFTerminated() error {
	return p.core.ForceEOFTerminated()
}

// HeadersComplete reports whether the header block has been fully parsed.
func (p *IncrementalResponseParser) HeadersComplete() bool { return p.core.HeadersComplete() }

// ContentComplete reports whether the body has been fully delivered.
func (p *IncrementalResponseParser) ContentComplete() bool { return p.core.ContentComplete() }

// Response returns the response built up so far.
func (p *IncrementalResponseParser) Response() *Response { return p.resp }

type responseSink struct{ p *IncrementalResponseParser }

func (s responseSink) HeaderComplete(name, value []byte) bool {
	if value != nil {
		s.p.resp.Headers.Add(string(name), string(value))
	}
	return false
}

func (s responseSink) MayHaveBody() bool {
	code := s.p.resp.StatusCode
	if code >= 100 && code < 200 {
		return false
	}
	switch code {
	case 204, 304:
		return false
	default:
		return true
	}
}
