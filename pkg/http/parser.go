package http

import (
	"bytes"
	"io"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Parse parses HTTP wire format into an AST from a string.
//
// The input is a complete HTTP/1.1 message (request or response). It is
// routed through UnmarshalRequest/UnmarshalResponse exactly as Unmarshal
// does, then projected onto an ast.ObjectNode via RequestToNode or
// ResponseToNode, so the AST and struct views of a message always agree.
//
// For requests:
//
//	{ "type": "request", "method": "GET", "path": "/api",
//	  "version": "HTTP/1.1",
//	  "headers": [{"key": "Host", "value": "example.com"}, ...],
//	  "body": "..." }
//
// For responses:
//
//	{ "type": "response", "version": "HTTP/1.1", "statusCode": 200,
//	  "reason": "OK",
//	  "headers": [{"key": "Content-Type", "value": "text/plain"}, ...],
//	  "body": "..." }
func Parse(input string) (ast.SchemaNode, error) {
	return parseNode([]byte(input))
}

// ParseReader reads all data from r and parses it as an HTTP message into an AST.
func ParseReader(r io.Reader) (ast.SchemaNode, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return parseNode(data)
}

func parseNode(data []byte) (ast.SchemaNode, error) {
	if bytes.HasPrefix(data, []byte("HTTP/")) {
		resp, err := UnmarshalResponse(data)
		if err != nil {
			return nil, err
		}
		return ResponseToNode(resp), nil
	}
	req, err := UnmarshalRequest(data)
	if err != nil {
		return nil, err
	}
	return RequestToNode(req), nil
}
