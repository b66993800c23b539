// Command httpcat reads a single HTTP/1.1 message from stdin and logs
// each header and body fragment as it is parsed, one small read at a
// time. It exists to exercise github.com/shapestone/shape-http's
// incremental parser the way a real connection would feed it: in
// whatever pieces the transport happens to hand over, never the whole
// message in one call.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/shapestone/shape-http/internal/streamparse"
	shapehttp "github.com/shapestone/shape-http/pkg/http"
)

func main() {
	chunkSize := flag.Int("chunk", 64, "maximum bytes read from stdin per call, to exercise partial-buffer resumption")
	asResponse := flag.Bool("response", false, "parse stdin as an HTTP response instead of a request")
	flag.Parse()

	if *chunkSize <= 0 {
		log.Fatalf("httpcat: -chunk must be positive, got %d", *chunkSize)
	}

	if err := run(os.Stdin, os.Stdout, *chunkSize, *asResponse); err != nil {
		log.Fatalf("httpcat: %v", err)
	}
}

func run(r io.Reader, w io.Writer, chunkSize int, asResponse bool) error {
	id := uuid.New()
	log.Printf("httpcat: starting message %s", id)

	br := bufio.NewReader(r)
	if asResponse {
		p := shapehttp.NewIncrementalResponseParser()
		err := feed(br, chunkSize, driveResponse(p, id, w), p.ContentComplete)
		return err
	}
	p := shapehttp.NewIncrementalRequestParser()
	return feed(br, chunkSize, driveRequest(p, id, w), p.ContentComplete)
}

// driveRequest returns a step function that advances p as far as the
// bytes in in allow, logging the request line, headers, and body
// fragments as each becomes available. It returns when either the
// message is fully parsed or no further progress is possible without
// more input.
func driveRequest(p *shapehttp.IncrementalRequestParser, id uuid.UUID, w io.Writer) func(*streamparse.Input) error {
	headersLogged := false
	return func(in *streamparse.Input) error {
		for {
			if p.Request().Method == "" {
				done, err := p.ParseRequestLine(in)
				if err != nil {
					return err
				}
				if !done {
					return nil
				}
				continue
			}
			if !p.HeadersComplete() {
				done, err := p.ParseHeaders(in)
				if err != nil {
					return err
				}
				if !done {
					return nil
				}
				if !headersLogged {
					req := p.Request()
					logHeaders(id, req.Method+" "+req.Path+" "+req.Version, req.Headers)
					headersLogged = true
				}
				continue
			}
			if !p.ContentComplete() {
				b, err := p.ParseBody(in)
				if err != nil {
					return err
				}
				if len(b) > 0 {
					fmt.Fprintf(w, "[%s] body fragment: %q\n", id, b)
				}
				if b == nil {
					return nil
				}
				continue
			}
			return nil
		}
	}
}

// driveResponse is driveRequest's counterpart for responses.
func driveResponse(p *shapehttp.IncrementalResponseParser, id uuid.UUID, w io.Writer) func(*streamparse.Input) error {
	headersLogged := false
	return func(in *streamparse.Input) error {
		for {
			if p.Response().Version == "" {
				done, err := p.ParseStatusLine(in)
				if err != nil {
					return err
				}
				if !done {
					return nil
				}
				continue
			}
			if !p.HeadersComplete() {
				done, err := p.ParseHeaders(in)
				if err != nil {
					return err
				}
				if !done {
					return nil
				}
				if !headersLogged {
					resp := p.Response()
					logHeaders(id, fmt.Sprintf("%s %d %s", resp.Version, resp.StatusCode, resp.Reason), resp.Headers)
					headersLogged = true
				}
				continue
			}
			if !p.ContentComplete() {
				b, err := p.ParseBody(in)
				if err != nil {
					return err
				}
				if len(b) > 0 {
					fmt.Fprintf(w, "[%s] body fragment: %q\n", id, b)
				}
				if b == nil {
					return nil
				}
				continue
			}
			return nil
		}
	}
}

func logHeaders(id uuid.UUID, startLine string, headers shapehttp.Headers) {
	log.Printf("[%s] %s", id, startLine)
	for _, h := range headers {
		log.Printf("[%s] header: %s: %s", id, h.Key, h.Value)
	}
}

// feed drives step against r in reads of at most chunkSize bytes, calling
// step once per read with whatever bytes remain unconsumed from the
// previous call, until done reports true or the stream ends without the
// message having finished.
func feed(r *bufio.Reader, chunkSize int, step func(*streamparse.Input) error, done func() bool) error {
	var pending bytes.Buffer
	buf := make([]byte, chunkSize)

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			pending.Write(buf[:n])
		}

		in := streamparse.NewInput(pending.Bytes())
		if err := step(in); err != nil {
			return err
		}
		pending.Next(in.Pos)

		if done() {
			return nil
		}
		if readErr != nil {
			if readErr == io.EOF {
				return fmt.Errorf("message incomplete at end of stream")
			}
			return readErr
		}
	}
}
