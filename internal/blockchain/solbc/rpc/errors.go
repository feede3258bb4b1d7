// internal/blockchain/solbc/rpc/errors.go
package rpc

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrNoRPCNodes возникает, когда не задано ни одного RPC узла
var ErrNoRPCNodes = errors.New("no RPC nodes configured")

// NodeError is a failed call on one node. Endpoint is the node URL without
// path or query, so provider API keys never reach logs or the UI.
type NodeError struct {
	Method   string
	Endpoint string
	// Transport is set when the node itself failed (timeout, refused,
	// 5xx) rather than answering with an error.
	Transport bool
	Err       error
}

func (e *NodeError) Error() string {
	kind := "answered"
	if e.Transport {
		kind = "unreachable"
	}
	return fmt.Sprintf("rpc %s via %s (%s): %v", e.Method, e.Endpoint, kind, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

func newNodeError(err error, nodeURL, method string, transport bool) error {
	return &NodeError{Method: method, Endpoint: endpoint(nodeURL), Transport: transport, Err: err}
}

// IsTransport reports whether err came from a node that failed to answer.
func IsTransport(err error) bool {
	var ne *NodeError
	return errors.As(err, &ne) && ne.Transport
}

// endpoint strips everything but scheme and host from raw.
func endpoint(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid-endpoint"
	}
	return u.Scheme + "://" + u.Host
}
