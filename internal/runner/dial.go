package runner

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mdlayher/vsock"
)

// Retry defaults for connection establishment from the animator side.
const (
	dialMaxRetries  = 5
	dialBaseBackoff = 100 * time.Millisecond
)

// DialUnix connects to the orchestrator's animator socket, retrying with
// exponential backoff so an animator starting before the daemon settles.
func DialUnix(ctx context.Context, path string) (net.Conn, error) {
	var lastErr error
	backoff := dialBaseBackoff
	dialer := net.Dialer{}

	for attempt := range dialMaxRetries {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dial animator socket: %w", ctx.Err())
		default:
		}

		conn, err := dialer.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if attempt < dialMaxRetries-1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("dial animator socket: %w", ctx.Err())
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("dial animator socket after %d attempts: %w", dialMaxRetries, lastErr)
}

// DialVsock connects to an orchestrator running in the host from an animator
// inside a VM, over the given vsock context ID and port.
func DialVsock(cid, port uint32) (net.Conn, error) {
	conn, err := vsock.Dial(cid, port, nil)
	if err != nil {
		return nil, fmt.Errorf("dial vsock %d:%d: %w", cid, port, err)
	}
	return conn, nil
}
