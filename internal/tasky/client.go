package tasky

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

// Client performs remote tool invocations against a tasky endpoint speaking
// JSON-RPC 2.0 over a unix or tcp connection. It has no side effects beyond
// the network call; results are handed back to the caller for recording.
type Client struct {
	address   string
	authToken string

	mu   sync.Mutex
	conn *jsonrpc2.Conn
}

// New builds a client for the given endpoint address (unix:// or tcp://).
// The connection is dialed lazily on first use.
func New(address, authToken string) *Client {
	return &Client{address: address, authToken: authToken}
}

// noopHandler discards server-initiated requests; the endpoint only answers.
type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

func (c *Client) connect(ctx context.Context) (*jsonrpc2.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		select {
		case <-c.conn.DisconnectNotify():
			c.conn = nil
		default:
			return c.conn, nil
		}
	}

	network, target, err := splitAddress(c.address)
	if err != nil {
		return nil, err
	}

	var dialer net.Dialer
	netConn, err := dialer.DialContext(ctx, network, target)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.address, err)
	}

	stream := jsonrpc2.NewBufferedStream(netConn, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, noopHandler{})

	if strings.TrimSpace(c.authToken) != "" {
		if err := conn.Notify(ctx, "session/authenticate", map[string]string{"token": c.authToken}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}

	c.conn = conn
	return conn, nil
}

// CallTool issues a tools/call request and normalizes the response into one
// display string.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return "", classify(ctx, err)
	}

	params := CallParams{Name: name, Arguments: args}
	var raw json.RawMessage
	if err := conn.Call(ctx, "tools/call", params, &raw); err != nil {
		return "", classify(ctx, err)
	}

	return normalizeResult(raw), nil
}

// ListTools issues a tools/list request and returns the advertised tools.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, classify(ctx, err)
	}

	var result listResult
	if err := conn.Call(ctx, "tools/list", nil, &result); err != nil {
		return nil, classify(ctx, err)
	}

	return result.Tools, nil
}

// Close tears down the connection if one is open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		slog.Debug("endpoint connection close failed", "error", err)
	}
	return err
}

func splitAddress(address string) (network, target string, err error) {
	switch {
	case strings.HasPrefix(address, "unix://"):
		return "unix", strings.TrimPrefix(address, "unix://"), nil
	case strings.HasPrefix(address, "tcp://"):
		return "tcp", strings.TrimPrefix(address, "tcp://"), nil
	default:
		return "", "", fmt.Errorf("unsupported endpoint address: %s", address)
	}
}

// classify maps transport-level failures onto the error taxonomy the caller
// branches on.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return wrapCancelled(ctx.Err())
	}

	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return wrapRemote(rpcErr)
	}

	return wrapNetwork(err)
}
