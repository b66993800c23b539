package http

import (
	"fmt"
	"strconv"

	"github.com/shapestone/shape-core/pkg/ast"
)

// NodeToRequest converts an AST ObjectNode produced by RequestToNode (or
// Parse) back into a Request.
func NodeToRequest(node ast.SchemaNode) (*Request, error) {
	obj, ok := node.(*ast.ObjectNode)
	if !ok {
		return nil, fmt.Errorf("expected ObjectNode, got %T", node)
	}
	props := obj.Properties()
	req := &Request{}

	if v, ok := props["method"]; ok {
		req.Method = nodeToString(v)
	}
	if v, ok := props["path"]; ok {
		req.Path = nodeToString(v)
	}
	if v, ok := props["version"]; ok {
		req.Version = nodeToString(v)
	}
	if v, ok := props["scheme"]; ok {
		req.Scheme = nodeToString(v)
	}
	if v, ok := props["headers"]; ok {
		hdrs, err := nodeToHeaders(v)
		if err != nil {
			return nil, err
		}
		req.Headers = hdrs
	}
	if v, ok := props["body"]; ok {
		if s, isStr := nodeToStringOK(v); isStr {
			req.Body = []byte(s)
		}
	}
	return req, nil
}

// NodeToResponse converts an AST ObjectNode produced by ResponseToNode (or
// Parse) back into a Response.
func NodeToResponse(node ast.SchemaNode) (*Response, error) {
	obj, ok := node.(*ast.ObjectNode)
	if !ok {
		return nil, fmt.Errorf("expected ObjectNode, got %T", node)
	}
	props := obj.Properties()
	resp := &Response{}

	if v, ok := props["version"]; ok {
		resp.Version = nodeToString(v)
	}
	if v, ok := props["statusCode"]; ok {
		resp.StatusCode = nodeToStatusCode(v)
	}
	if v, ok := props["reason"]; ok {
		resp.Reason = nodeToString(v)
	}
	if v, ok := props["headers"]; ok {
		hdrs, err := nodeToHeaders(v)
		if err != nil {
			return nil, err
		}
		resp.Headers = hdrs
	}
	if v, ok := props["body"]; ok {
		if s, isStr := nodeToStringOK(v); isStr {
			resp.Body = []byte(s)
		}
	}
	return resp, nil
}

var zeroPos = ast.Position{}

// RequestToNode converts a Request to an AST ObjectNode.
func RequestToNode(req *Request) ast.SchemaNode {
	props := map[string]ast.SchemaNode{
		"type":    ast.NewLiteralNode("request", zeroPos),
		"method":  ast.NewLiteralNode(req.Method, zeroPos),
		"path":    ast.NewLiteralNode(req.Path, zeroPos),
		"version": ast.NewLiteralNode(req.Version, zeroPos),
		"headers": pubHeadersToNode(req.Headers),
	}
	if req.Scheme != "" {
		props["scheme"] = ast.NewLiteralNode(req.Scheme, zeroPos)
	}
	if req.Body != nil {
		props["body"] = ast.NewLiteralNode(string(req.Body), zeroPos)
	}
	return ast.NewObjectNode(props, zeroPos)
}

// ResponseToNode converts a Response to an AST ObjectNode.
func ResponseToNode(resp *Response) ast.SchemaNode {
	props := map[string]ast.SchemaNode{
		"type":       ast.NewLiteralNode("response", zeroPos),
		"version":    ast.NewLiteralNode(resp.Version, zeroPos),
		"statusCode": ast.NewLiteralNode(int64(resp.StatusCode), zeroPos),
		"reason":     ast.NewLiteralNode(resp.Reason, zeroPos),
		"headers":    pubHeadersToNode(resp.Headers),
	}
	if resp.Body != nil {
		props["body"] = ast.NewLiteralNode(string(resp.Body), zeroPos)
	}
	return ast.NewObjectNode(props, zeroPos)
}

// NodeToInterface converts an AST node to native Go types.
func NodeToInterface(node ast.SchemaNode) interface{} {
	switch n := node.(type) {
	case *ast.LiteralNode:
		return n.Value()
	case *ast.ArrayDataNode:
		elements := n.Elements()
		arr := make([]interface{}, len(elements))
		for i, elem := range elements {
			arr[i] = NodeToInterface(elem)
		}
		return arr
	case *ast.ObjectNode:
		props := n.Properties()
		m := make(map[string]interface{}, len(props))
		for k, v := range props {
			m[k] = NodeToInterface(v)
		}
		return m
	default:
		return nil
	}
}

func pubHeadersToNode(headers Headers) ast.SchemaNode {
	elements := make([]ast.SchemaNode, len(headers))
	for i, h := range headers {
		elements[i] = ast.NewObjectNode(map[string]ast.SchemaNode{
			"key":   ast.NewLiteralNode(h.Key, zeroPos),
			"value": ast.NewLiteralNode(h.Value, zeroPos),
		}, zeroPos)
	}
	return ast.NewArrayDataNode(elements, zeroPos)
}

// nodeToHeaders converts an AST headers array back to Headers.
func nodeToHeaders(node ast.SchemaNode) (Headers, error) {
	arr, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return nil, fmt.Errorf("expected ArrayDataNode for headers, got %T", node)
	}
	elements := arr.Elements()
	headers := make(Headers, 0, len(elements))
	for _, elem := range elements {
		obj, ok := elem.(*ast.ObjectNode)
		if !ok {
			continue
		}
		props := obj.Properties()
		var h Header
		if v, ok := props["key"]; ok {
			h.Key = nodeToString(v)
		}
		if v, ok := props["value"]; ok {
			h.Value = nodeToString(v)
		}
		headers = append(headers, h)
	}
	return headers, nil
}

// nodeToString extracts a string from a literal node, or "" if node is not
// a literal or does not hold a string.
func nodeToString(node ast.SchemaNode) string {
	s, _ := nodeToStringOK(node)
	return s
}

func nodeToStringOK(node ast.SchemaNode) (string, bool) {
	lit, ok := node.(*ast.LiteralNode)
	if !ok {
		return "", false
	}
	s, ok := lit.Value().(string)
	return s, ok
}

// nodeToStatusCode extracts the status code from a literal node, tolerating
// the int64/float64/string shapes a generic AST decoder might hand back.
func nodeToStatusCode(node ast.SchemaNode) int {
	lit, ok := node.(*ast.LiteralNode)
	if !ok {
		return 0
	}
	switch code := lit.Value().(type) {
	case int64:
		return int(code)
	case float64:
		return int(code)
	case string:
		n, _ := strconv.Atoi(code)
		return n
	}
	return 0
}
