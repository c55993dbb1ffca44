package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/mdlayher/vsock"
	"github.com/oklog/ulid/v2"
)

// Listener accepts animator connections on a unix socket and keeps the
// resulting links registered until their peers go away.
type Listener struct {
	ln     net.Listener
	acks   Acker
	logger *slog.Logger

	mu    sync.Mutex
	links map[string]*ConnLink
}

// Listen binds the animator socket, removing any stale socket file left by a
// previous run.
func Listen(path string, acks Acker, logger *slog.Logger) (*Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}

	return &Listener{
		ln:     ln,
		acks:   acks,
		logger: logger,
		links:  make(map[string]*ConnLink),
	}, nil
}

// ListenVsock binds a vsock port for animators running inside VMs.
func ListenVsock(port uint32, acks Acker, logger *slog.Logger) (*Listener, error) {
	ln, err := vsock.Listen(port, nil)
	if err != nil {
		return nil, fmt.Errorf("listen on vsock port %d: %w", port, err)
	}

	return &Listener{
		ln:     ln,
		acks:   acks,
		logger: logger,
		links:  make(map[string]*ConnLink),
	}, nil
}

// Serve accepts animator connections until the listener is closed.
func (l *Listener) Serve() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept animator connection: %w", err)
		}

		id := ulid.Make().String()
		link := NewConnLink(conn, l.acks, l.logger)

		l.mu.Lock()
		l.links[id] = link
		l.mu.Unlock()

		l.logger.Info("animator connected", "link_id", id, "remote", conn.RemoteAddr().String())

		link.Watch(func() {
			l.mu.Lock()
			delete(l.links, id)
			l.mu.Unlock()
			l.logger.Info("animator disconnected", "link_id", id)
		})
	}
}

// Links returns the currently connected animator links.
func (l *Listener) Links() []*ConnLink {
	l.mu.Lock()
	defer l.mu.Unlock()

	links := make([]*ConnLink, 0, len(l.links))
	for _, link := range l.links {
		links = append(links, link)
	}
	return links
}

// Close stops accepting and closes every live link.
func (l *Listener) Close() error {
	err := l.ln.Close()

	l.mu.Lock()
	links := make([]*ConnLink, 0, len(l.links))
	for _, link := range l.links {
		links = append(links, link)
	}
	l.mu.Unlock()

	for _, link := range links {
		link.Close()
	}
	return err
}
