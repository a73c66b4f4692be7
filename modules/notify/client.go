// Package notify streams job lifecycle events to a dashboard over socket.io.
// It is optional: the executor only receives a notifier when a notify URL is
// configured.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/kvolkov/gridci/internal/ctxlog"
)

// dialTimeout bounds the initial connection handshake.
const dialTimeout = 10 * time.Second

// Client is a connected socket.io event emitter. It satisfies dag.Notifier.
type Client struct {
	io *socket.Socket
}

// Dial connects to the dashboard endpoint and waits for the socket.io
// handshake to complete.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("notify_url", rawURL)
	logger.Debug("Connecting notify client")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notify URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connected <- err
				return
			}
		}
		connected <- fmt.Errorf("socket.io connection failed")
	})

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	io.Connect()
	select {
	case <-dialCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out while waiting for notify connection to '%s'", rawURL)
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("connecting to notify endpoint: %w", err)
		}
	}

	logger.Debug("Notify client connected", "sid", io.Id())
	return &Client{io: io}, nil
}

// JobStarted emits a job_started event.
func (c *Client) JobStarted(runID, nodeID string) {
	c.io.Emit("job_started", map[string]any{
		"run_id": runID,
		"job":    nodeID,
	})
}

// JobFinished emits a job_finished event.
func (c *Client) JobFinished(runID, nodeID, status string, duration time.Duration) {
	c.io.Emit("job_finished", map[string]any{
		"run_id":      runID,
		"job":         nodeID,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
}

// Close disconnects the underlying socket.
func (c *Client) Close() {
	c.io.Disconnect()
}
