package streamparse

import "testing"

type recordingSink struct {
	names     []string
	values    []string
	mayHave   bool
	stopAfter int
}

func (s *recordingSink) HeaderComplete(name, value []byte) bool {
	s.names = append(s.names, string(name))
	if value == nil {
		s.values = append(s.values, "")
	} else {
		s.values = append(s.values, string(value))
	}
	if s.stopAfter > 0 && len(s.names) == s.stopAfter {
		return true
	}
	return false
}

func (s *recordingSink) MayHaveBody() bool { return s.mayHave }

func TestParseHeaders_Simple(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("Host: example.com\r\nX-A: 1\r\n\r\n"))
	done, err := p.ParseHeaders(in, sink)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	if !done || !p.HeadersComplete() {
		t.Fatalf("ParseHeaders() done = %v, HeadersComplete = %v, want true/true", done, p.HeadersComplete())
	}
	if len(sink.names) != 2 || sink.names[0] != "Host" || sink.values[0] != "example.com" {
		t.Errorf("headers = %v/%v, want [Host X-A]/[example.com 1]", sink.names, sink.values)
	}
}

func TestParseHeaders_IncrementalAcrossSplit(t *testing.T) {
	full := "Host: example.com\r\nContent-Length: 5\r\n\r\n"
	for split := 0; split <= len(full); split++ {
		p := NewParser(DefaultConfig())
		sink := &recordingSink{}
		in1 := NewInput([]byte(full[:split]))
		done, err := p.ParseHeaders(in1, sink)
		if err != nil {
			t.Fatalf("split %d: first ParseHeaders() error = %v", split, err)
		}
		if done {
			continue
		}
		in2 := NewInput([]byte(full[split:]))
		done, err = p.ParseHeaders(in2, sink)
		if err != nil {
			t.Fatalf("split %d: second ParseHeaders() error = %v", split, err)
		}
		if !done {
			t.Fatalf("split %d: ParseHeaders() never completed", split)
		}
		if len(sink.names) != 2 {
			t.Fatalf("split %d: headers = %v, want 2 entries", split, sink.names)
		}
	}
}

func TestParseHeaders_BareLF(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("Host: example.com\nX-A: 1\n\n"))
	done, err := p.ParseHeaders(in, sink)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	if !done {
		t.Fatal("ParseHeaders() did not complete on bare-LF input")
	}
}

func TestParseHeaders_StrayCRInName(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("Fo\rNotBar: v\n"))
	_, err := p.ParseHeaders(in, sink)
	if err == nil {
		t.Fatal("ParseHeaders() error = nil, want error for stray CR mid header name")
	}
}

func TestParseHeaders_StrayCRInValue(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("X-A: fo\robar\n\n"))
	_, err := p.ParseHeaders(in, sink)
	if err == nil {
		t.Fatal("ParseHeaders() error = nil, want error for stray CR mid header value")
	}
}

func TestParseHeaders_CRLFInNameStillWorks(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("Host: example.com\r\n\r\n"))
	done, err := p.ParseHeaders(in, sink)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	if !done || len(sink.names) != 1 || sink.names[0] != "Host" {
		t.Fatalf("ParseHeaders() = %v/%v, want done with [Host]", sink.names, done)
	}
}

func TestParseHeaders_EarlyExit(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{stopAfter: 1}
	in := NewInput([]byte("Host: example.com\r\nX-A: 1\r\n\r\n"))
	done, err := p.ParseHeaders(in, sink)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	if !done {
		t.Fatal("ParseHeaders() expected early-exit true return")
	}
	if p.HeadersComplete() {
		t.Fatal("HeadersComplete() true after early exit, want false")
	}
	done, err = p.ParseHeaders(in, sink)
	if err != nil {
		t.Fatalf("resumed ParseHeaders() error = %v", err)
	}
	if !done || !p.HeadersComplete() {
		t.Fatalf("resumed ParseHeaders() done = %v, HeadersComplete = %v, want true/true", done, p.HeadersComplete())
	}
	if len(sink.names) != 2 {
		t.Fatalf("headers = %v, want 2 entries total", sink.names)
	}
}

func TestParseHeaders_MissingValue(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("Host:\r\n\r\n"))
	_, err := p.ParseHeaders(in, sink)
	if err == nil {
		t.Fatal("expected error for header with empty value")
	}
	if _, ok := err.(*BadRequest); !ok {
		t.Errorf("error = %T, want *BadRequest", err)
	}
}

func TestParseHeaders_SizeLimitExceeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeaderSizeLimit = 8
	p := NewParser(cfg)
	sink := &recordingSink{}
	in := NewInput([]byte("X-Too-Long: yes\r\n\r\n"))
	_, err := p.ParseHeaders(in, sink)
	if err == nil {
		t.Fatal("expected size-limit error")
	}
	if _, ok := err.(*BadRequest); !ok {
		t.Errorf("error = %T, want *BadRequest", err)
	}
}

func TestParseHeaders_ReentryAfterShutdownFails(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("Content-Length: 0\r\n\r\n"))
	done, err := p.ParseHeaders(in, sink)
	if err != nil || !done {
		t.Fatalf("ParseHeaders() = %v, %v, want true, nil", done, err)
	}
	if !p.ContentComplete() {
		t.Fatal("ContentComplete() false after Content-Length: 0, want true")
	}
	_, err = p.ParseHeaders(NewInput(nil), sink)
	if _, ok := err.(*InvalidState); !ok {
		t.Errorf("error = %T, want *InvalidState", err)
	}
}

func TestDetectFraming_CaseInsensitive(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("TRANSFER-ENCODING: CHUNKED\r\n\r\n"))
	_, err := p.ParseHeaders(in, sink)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	if !p.IsChunked() {
		t.Error("IsChunked() = false, want true for case-varied Transfer-Encoding/chunked")
	}
}

func TestDetectFraming_UnknownTransferEncoding(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("Transfer-Encoding: gzip\r\n\r\n"))
	_, err := p.ParseHeaders(in, sink)
	if err == nil {
		t.Fatal("expected error for unsupported Transfer-Encoding")
	}
}

func TestDetectFraming_InvalidContentLength(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{}
	in := NewInput([]byte("Content-Length: 12x\r\n\r\n"))
	_, err := p.ParseHeaders(in, sink)
	if err == nil {
		t.Fatal("expected error for non-decimal Content-Length")
	}
}

func TestParseHeaders_NoBodyWhenSinkDeclines(t *testing.T) {
	p := NewParser(DefaultConfig())
	sink := &recordingSink{mayHave: false}
	in := NewInput([]byte("Host: example.com\r\n\r\n"))
	_, err := p.ParseHeaders(in, sink)
	if err != nil {
		t.Fatalf("ParseHeaders() error = %v", err)
	}
	if !p.ContentComplete() {
		t.Error("ContentComplete() false when sink declined a body, want true")
	}
}
