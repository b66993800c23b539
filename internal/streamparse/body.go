package streamparse

// ParseContent consumes body bytes from in and returns a read-only slice
// aliasing in's underlying array. A nil slice with a nil error means more
// input is needed (or the message has already finished — check
// ContentComplete); a non-nil slice (which may have zero length, as the
// end-of-body sentinel for a chunked message's trailer block) means
// progress was made. The framer itself never copies body bytes; copying,
// if desired, is the caller's choice.
func (p *Parser) ParseContent(in *Input) ([]byte, error) {
	if p.shutdownFlag {
		if p.contentDone {
			return nil, nil
		}
		return nil, &InvalidState{Op: "ParseContent"}
	}
	if !p.headersDone {
		return nil, &InvalidState{Op: "ParseContent"}
	}

	switch p.framing {
	case FramingNone:
		p.contentDone = true
		p.Shutdown()
		return nil, nil
	case FramingLength:
		return p.parseLengthBody(in)
	case FramingChunked:
		return p.parseChunkedBody(in)
	case FramingEOFTerminated:
		if in.remaining() == 0 {
			return nil, nil
		}
		return in.submitBuffer(), nil
	case FramingUnknown, FramingSelfDefining:
		// The source promotes Unknown framing to SelfDefining as a future
		// extension point, then fails immediately because no self-defining
		// encoding is implemented. A request or response that reaches here
		// declared neither Content-Length nor chunked Transfer-Encoding but
		// was still permitted a body by Sink.MayHaveBody; see the Design
		// Notes open question on Unknown framing for the rejected
		// alternative (treating it as bodyless per RFC 7230 §3.3.3).
		p.framing = FramingSelfDefining
		return nil, p.fail(in.Pos, "self-defining body framing is not implemented")
	default:
		return nil, &InvalidState{Op: "ParseContent"}
	}
}

func (p *Parser) parseLengthBody(in *Input) ([]byte, error) {
	need := p.contentLength - p.delivered
	if need <= 0 {
		p.contentDone = true
		p.Shutdown()
		return nil, nil
	}
	avail := int64(in.remaining())
	if avail == 0 {
		return nil, nil
	}
	if avail >= need {
		b := in.submitPartialBuffer(int(need))
		p.delivered += need
		p.contentDone = true
		p.Shutdown()
		return b, nil
	}
	b := in.submitBuffer()
	p.delivered += avail
	return b, nil
}

// parseChunkedBody drives the chunk state machine: a hex size line
// (optionally followed by discarded chunk extensions), the chunk data
// itself, a CRLF, and repeat — until a zero-size chunk hands off to the
// header parser for trailers.
func (p *Parser) parseChunkedBody(in *Input) ([]byte, error) {
	for {
		switch p.chunkPhase {
		case ChunkStart:
			p.tok.resetLimit(256)
			p.tok.clearBuffer()
			p.chunkLength = 0
			p.chunkPhase = ChunkSize
			continue
		case ChunkBody:
			need := p.chunkLength - p.chunkPos
			if need <= 0 {
				p.chunkPhase = ChunkLF
				continue
			}
			avail := int64(in.remaining())
			if avail == 0 {
				return nil, nil
			}
			if avail >= need {
				b := in.submitPartialBuffer(int(need))
				p.chunkPos += need
				return b, nil
			}
			b := in.submitBuffer()
			p.chunkPos += avail
			return b, nil
		case ChunkTrailers:
			done, err := p.ParseHeaders(in, p.sink)
			if err != nil {
				return nil, err
			}
			if !done || !p.headersDone {
				return nil, nil
			}
			p.chunkPhase = ChunkEnd
			p.contentDone = true
			return []byte{}, nil
		case ChunkEnd:
			return nil, nil
		}

		c, ok, err := p.tok.next(in)
		if err != nil {
			return nil, p.fail(in.Pos, "%s", err.Error())
		}
		if !ok {
			return nil, nil
		}

		switch p.chunkPhase {
		case ChunkSize:
			if p.chunkCRPending {
				p.chunkCRPending = false
				if c != '\n' {
					return nil, p.fail(in.Pos, "bad chunked encoding: stray CR")
				}
				p.finishChunkSizeLine()
				continue
			}
			switch {
			case isHexDigit(c):
				p.chunkLength = p.chunkLength*16 + int64(hexVal(c))
				if p.chunkLength > int64(p.cfg.MaxChunkSize) {
					return nil, p.fail(in.Pos, "chunk too large")
				}
			case c == ' ' || c == '\t' || c == ';':
				p.chunkPhase = ChunkParams
			case c == '\r':
				// Only valid immediately before the LF that terminates the
				// line; a CR elsewhere in the size line is a malformed
				// chunk, just as a CR elsewhere in a header name is.
				p.chunkCRPending = true
			case c == '\n':
				p.finishChunkSizeLine()
			default:
				return nil, p.fail(in.Pos, "bad chunked encoding")
			}
		case ChunkParams:
			// Chunk extensions are accepted but discarded; only the
			// terminating LF matters.
			if c == '\n' {
				p.finishChunkSizeLine()
			}
		case ChunkLF:
			switch {
			case c == '\r' && !p.chunkSawCR:
				p.chunkSawCR = true
			case c == '\n':
				p.chunkSawCR = false
				p.chunkPhase = ChunkStart
			default:
				return nil, p.fail(in.Pos, "bad chunked encoding")
			}
		default:
			return nil, &InvalidState{Op: "ParseContent"}
		}
	}
}

// finishChunkSizeLine is called when the LF terminating a chunk-size (or
// chunk-extension) line is seen. A zero-length chunk hands off to the
// header parser for trailers; any other length moves on to the chunk body.
func (p *Parser) finishChunkSizeLine() {
	if p.chunkLength == 0 {
		p.chunkPhase = ChunkTrailers
		p.headerPhase = HeaderStart
		p.trailers = true
	} else {
		p.chunkPhase = ChunkBody
		p.chunkPos = 0
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
