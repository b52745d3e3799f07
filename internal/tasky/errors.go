package tasky

import (
	"github.com/sourcegraph/jsonrpc2"

	"taskpilot/internal/fault"
)

func wrapCancelled(err error) error {
	return fault.Wrap(fault.KindCancelled, "tool call aborted", err)
}

// wrapRemote maps endpoint errors onto the taxonomy. An invalid-params code
// means the endpoint rejected the request shape, which callers treat as a
// schema problem rather than a tool failure.
func wrapRemote(rpcErr *jsonrpc2.Error) error {
	if rpcErr.Code == jsonrpc2.CodeInvalidParams {
		return fault.Wrap(fault.KindSchema, rpcErr.Message, rpcErr)
	}
	return fault.Wrap(fault.KindRemote, rpcErr.Message, rpcErr)
}

func wrapNetwork(err error) error {
	return fault.Wrap(fault.KindNetwork, "endpoint unreachable", err)
}
